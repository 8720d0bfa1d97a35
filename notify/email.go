// Package notify sends the outbound email alert listing staged actions.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"qbt-janitor/cleanup"
	"qbt-janitor/config"
)

// Mailer sends one plain-text alert per run summarizing every staged action.
type Mailer struct {
	cfg    config.EmailConfig
	logger zerolog.Logger
}

// NewMailer creates a mailer from the email settings.
func NewMailer(cfg config.EmailConfig, logger zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// SendActionAlert mails the full action list. The list includes records the
// executor's flag gates filtered out, so the recipient sees every decision.
func (m *Mailer) SendActionAlert(ctx context.Context, actions []cleanup.ActionRecord) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}

	subject := m.cfg.Subject
	if subject == "" {
		subject = fmt.Sprintf("qbt-janitor: %d torrents processed", len(actions))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, buildBody(actions))

	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if m.cfg.Port != 0 {
		opts = append(opts, mail.WithPort(m.cfg.Port))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}

	m.logger.Info().Int("actions", len(actions)).Msg("Sent alert email")
	return nil
}

// buildBody renders the action list, one line per staged decision.
func buildBody(actions []cleanup.ActionRecord) string {
	var b strings.Builder
	b.WriteString("The following torrents were processed:\n\n")
	for _, a := range actions {
		fmt.Fprintf(&b, " * %s (%s) - %s", a.Torrent.Name, a.Torrent.State, a.Method)
		if a.Reason != "" {
			fmt.Fprintf(&b, ": %s", a.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
