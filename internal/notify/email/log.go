package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
)

// LogNotifier writes lifecycle emails to the log instead of sending them.
// Used when SMTP_HOST is empty.
type LogNotifier struct {
	log  *zap.SugaredLogger
	link string
}

func NewLogNotifier(activationLink string, logger *zap.SugaredLogger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogNotifier{log: logger, link: activationLink}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, to notify.Recipient) error {
	n.log.Infow("welcome email (log only; configure SMTP_HOST to send)",
		"to", to.Email, "subject", SubjectWelcome, "account_id", to.AccountID)
	return nil
}

func (n *LogNotifier) SendActivation(ctx context.Context, to notify.Recipient) error {
	n.log.Infow("activation email (log only; configure SMTP_HOST to send)",
		"to", to.Email, "subject", SubjectActivation, "account_id", to.AccountID, "link", n.link)
	return nil
}

var _ notify.Notifier = (*LogNotifier)(nil)
