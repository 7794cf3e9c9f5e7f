package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRejectsBadInput(t *testing.T) {
	s := NewSMTPSender(Config{Host: "smtp.example.com", Port: 465, From: "me@example.com", SSL: true}, nil)

	err := s.Send(context.Background(), nil, "subject", "body", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")

	err = s.Send(context.Background(), []string{"hr@acme.com"}, "subject", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty email body")
}

func TestSendRejectsMalformedAddresses(t *testing.T) {
	s := NewSMTPSender(Config{Host: "smtp.example.com", Port: 465, From: "not an address"}, nil)

	err := s.Send(context.Background(), []string{"hr@acme.com"}, "subject", "body", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")

	s = NewSMTPSender(Config{Host: "smtp.example.com", Port: 465, From: "me@example.com"}, nil)
	err = s.Send(context.Background(), []string{"definitely not an address"}, "subject", "body", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipients")
}
