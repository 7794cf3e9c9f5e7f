// Package inbox watches the sending mailbox for replies and bounce
// notifications from contacted companies. A reply or a bounce closes out the
// company's queued retries instead of letting them burn rate-limit slots.
package inbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
	"github.com/AnkanSaha/auto-jobhunter/internal/store"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
}

type Monitor struct {
	cfg    Config
	store  *store.Store
	logger *zap.SugaredLogger
}

func NewMonitor(cfg Config, s *store.Store, logger *zap.SugaredLogger) *Monitor {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Monitor{cfg: cfg, store: s, logger: logger}
}

// PollOnce fetches unseen mail and reconciles it against history and queue.
func (m *Monitor) PollOnce(ctx context.Context) error {
	history, err := m.store.LoadHistory()
	if err != nil {
		return err
	}
	if len(history.SentEmails) == 0 && len(history.Jobs) == 0 {
		return nil // nothing contacted yet, nothing to match
	}

	c, release, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		release()
		_ = c.Close()
	}()

	msgs, err := m.fetchUnseen(ctx, c)
	if err != nil {
		return err
	}

	var handled []imap.UID
	for _, msg := range msgs {
		if m.handleMessage(msg, history) {
			handled = append(handled, msg.UID)
		}
	}
	if len(handled) > 0 {
		if err := markSeen(c, handled); err != nil {
			m.logger.Warnw("failed to mark messages seen", "error", err)
		}
	}
	return nil
}

// handleMessage returns true when the message matched a contacted company.
func (m *Monitor) handleMessage(msg message, history *domain.History) bool {
	body := bodyText(msg.Raw)

	if isBounce(msg.From, msg.Subject) {
		return m.handleBounce(msg, body)
	}
	return m.handleReply(msg, history)
}

func (m *Monitor) handleBounce(msg message, body string) bool {
	failed := extractAddresses(body)
	if len(failed) == 0 {
		return false
	}

	removed, err := m.store.RemoveMatching(func(l domain.Listing) bool {
		for _, r := range l.Recipients() {
			for _, f := range failed {
				if strings.EqualFold(r, f) {
					return true
				}
			}
		}
		return false
	})
	if err != nil {
		m.logger.Errorw("failed to drop bounced listings", "error", err)
		return false
	}
	if len(removed) == 0 {
		return false
	}

	now := time.Now()
	for _, l := range removed {
		l := l
		if err := m.store.UpdateHistory(func(h *domain.History) {
			h.RecordAbandoned(l, now, fmt.Sprintf("bounced: %s", msg.Subject))
		}); err != nil {
			m.logger.Errorw("failed to record bounce", "company", l.Company, "error", err)
			continue
		}
		m.logger.Infow("listing abandoned after bounce", "company", l.Company)
	}
	return true
}

func (m *Monitor) handleReply(msg message, history *domain.History) bool {
	from := strings.ToLower(strings.TrimSpace(msg.From))
	if from == "" {
		return false
	}

	// Find the listing whose outreach this reply answers.
	var matched *domain.HistoryRecord
	for i := range history.Jobs {
		rec := &history.Jobs[i]
		for _, r := range rec.Recipients() {
			if strings.EqualFold(r, from) {
				matched = rec
				break
			}
		}
		if matched != nil {
			break
		}
	}
	if matched == nil {
		return false
	}

	now := time.Now()
	company := strings.ToLower(matched.Company)

	// They answered: stop retrying this company.
	if _, err := m.store.RemoveMatching(func(l domain.Listing) bool {
		return strings.ToLower(l.Company) == company
	}); err != nil {
		m.logger.Errorw("failed to drop replied listings", "error", err)
	}

	if err := m.store.UpdateHistory(func(h *domain.History) {
		h.RecordReplied(matched.Listing, now)
	}); err != nil {
		m.logger.Errorw("failed to record reply", "company", matched.Company, "error", err)
		return false
	}

	m.logger.Infow("reply received", "company", matched.Company, "from", from, "subject", msg.Subject)
	return true
}

func isBounce(from, subject string) bool {
	f := strings.ToLower(from)
	s := strings.ToLower(subject)
	if strings.Contains(f, "mailer-daemon") || strings.Contains(f, "postmaster") {
		return true
	}
	for _, marker := range []string{"undeliverable", "delivery status notification", "failure notice", "returned mail"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// dial connects, authenticates and selects the mailbox. The returned release
// function stops the cancellation watcher; the caller runs it when the poll
// is over, then closes the client.
func (m *Monitor) dial(ctx context.Context) (*imapclient.Client, func(), error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: m.cfg.Host},
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "imap dial")
	}

	release := watchCancel(ctx, c)

	if err := c.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		release()
		_ = c.Close()
		return nil, nil, errors.Wrap(err, "imap login")
	}
	if _, err := c.Select(m.cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		release()
		_ = c.Close()
		return nil, nil, errors.Wrapf(err, "imap select %s", m.cfg.Mailbox)
	}
	return c, release, nil
}

// watchCancel closes c if ctx is cancelled so a hung IMAP wait cannot
// outlive shutdown. The returned release function ends the watch without
// closing; each poll must call it or the watcher goroutine lives until
// process exit.
func watchCancel(ctx context.Context, c io.Closer) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-done:
				// Poll already finished; the caller owns the close.
			default:
				_ = c.Close()
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}

type message struct {
	UID     imap.UID
	From    string
	Subject string
	Raw     []byte
}

const maxMessagesPerPoll = 50

func (m *Monitor) fetchUnseen(ctx context.Context, c *imapclient.Client) ([]message, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -1, 0),
	}

	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.Wrap(err, "imap uid search")
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > maxMessagesPerPoll {
		uids = uids[len(uids)-maxMessagesPerPoll:]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true, // don't set \Seen on fetch
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})

	var out []message
	for {
		select {
		case <-ctx.Done():
			_ = fetchCmd.Close()
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			_ = fetchCmd.Close()
			return nil, errors.Wrap(err, "imap fetch collect")
		}

		var msg message
		msg.UID = buf.UID
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			if len(buf.Envelope.From) > 0 {
				msg.From = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			msg.Raw = append([]byte(nil), b...)
		}
		out = append(out, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(err, "imap fetch close")
	}
	return out, nil
}

func markSeen(c *imapclient.Client, uids []imap.UID) error {
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	return cmd.Close()
}
