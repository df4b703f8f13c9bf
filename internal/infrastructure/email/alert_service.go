package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/ratelimit"
	"github.com/parkscope/analysis-api/internal/core/ports"
)

// AlertConfig holds the operator alert settings.
type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	OperatorEmail  string
}

// AlertService emails operators when a client is blocked for abuse.
// Delivery is best-effort; failures are logged and never surfaced to the
// request that triggered the block.
type AlertService struct {
	config *AlertConfig
	logger *logrus.Logger
	client *sendgrid.Client
}

// NewAlertService creates a SendGrid-backed alert notifier.
func NewAlertService(config *AlertConfig, logger *logrus.Logger) (ports.AlertNotifier, error) {
	if config.SendGridAPIKey == "" || config.OperatorEmail == "" {
		return nil, fmt.Errorf("alert service requires an API key and operator address")
	}
	return &AlertService{
		config: config,
		logger: logger,
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
	}, nil
}

// NotifyClientBlocked sends the abuse alert for one block event.
func (s *AlertService) NotifyClientBlocked(ctx context.Context, block *ratelimit.Block) error {
	subject := fmt.Sprintf("Analysis API: client %s blocked", block.ClientID)
	body := fmt.Sprintf(
		"Client %s exceeded the request ceiling and was blocked at %s until %s (reason: %s).",
		block.ClientID,
		block.BlockedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		block.UnblockTime.UTC().Format("2006-01-02 15:04:05 MST"),
		block.Reason,
	)

	from := mail.NewEmail(s.config.FromName, s.config.FromEmail)
	to := mail.NewEmail("", s.config.OperatorEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"client_id": block.ClientID,
			"to":        s.config.OperatorEmail,
		}).WithError(err).Error("Failed to send block alert")
		return err
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid returned status %d", response.StatusCode)
		s.logger.WithField("client_id", block.ClientID).WithError(err).Error("Failed to send block alert")
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"client_id": block.ClientID,
		"to":        s.config.OperatorEmail,
	}).Info("Block alert sent")
	return nil
}
