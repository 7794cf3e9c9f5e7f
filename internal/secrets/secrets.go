// Package secrets resolves credentials from the OS keychain with an
// environment fallback, so nothing sensitive lives in config.yml.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobhunter"

// Env fallbacks, checked when the keychain has no entry.
const (
	EnvAPIKey       = "JOBHUNTER_API_KEY"
	EnvSMTPPassword = "JOBHUNTER_SMTP_PASSWORD"
	EnvIMAPPassword = "JOBHUNTER_IMAP_PASSWORD"
)

func get(account, envVar string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v, nil
	}
	return "", errors.Newf("secret not found for %q (set it in the keychain or via %s)", account, envVar)
}

// APIKey returns the LLM API credential.
func APIKey() (string, error) {
	return get("jobhunter:llm", EnvAPIKey)
}

// SMTPPassword returns the outbound mail password for the given account.
func SMTPPassword(username, host string) (string, error) {
	return get(smtpAccount(username, host), EnvSMTPPassword)
}

// IMAPPassword returns the inbox-monitor password for the given account.
func IMAPPassword(username, host string) (string, error) {
	return get(imapAccount(username, host), EnvIMAPPassword)
}

// SetSMTPPassword stores the SMTP password in the keychain.
func SetSMTPPassword(username, host, password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, smtpAccount(username, host), password)
}

// SetAPIKey stores the LLM API credential in the keychain.
func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, "jobhunter:llm", key)
}

func smtpAccount(username, host string) string {
	return fmt.Sprintf("jobhunter:smtp:%s@%s", username, host)
}

func imapAccount(username, host string) string {
	return fmt.Sprintf("jobhunter:imap:%s@%s", username, host)
}
