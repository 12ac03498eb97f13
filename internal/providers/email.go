package providers

import (
	"context"
	"fmt"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/models"
	"notification-orchestrator/pkg/email"
)

// SendEmail mails an escalated notification to the configured recipient.
func SendEmail(ctx context.Context, notif models.Notification, cfg config.Config) error {
	if cfg.Email.SMTPServer == "" || cfg.Email.SMTPPort == 0 || cfg.Email.Username == "" || cfg.Email.Password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}
	if cfg.Email.To == "" {
		return fmt.Errorf("missing escalation recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] %s", notif.Priority, notif.Title)
	if err := email.Send(cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password, cfg.Email.To, subject, EscalationBody(notif)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", cfg.Email.To, err)
	}
	return nil
}
