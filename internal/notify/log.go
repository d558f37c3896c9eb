package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/portfolio/backend/internal/model"
)

// LogNotifier records the email that would be sent to the site owner.
// It stands in until a mail provider is configured.
type LogNotifier struct {
	ownerEmail string
	logger     *slog.Logger
}

func NewLogNotifier(ownerEmail string, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{ownerEmail: ownerEmail, logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg *model.Message) error {
	n.logger.InfoContext(ctx, "email notification",
		"to", n.ownerEmail,
		"subject", "New Portfolio Message Received",
		"message_id", msg.ID,
		"from_name", msg.Name,
		"from_email", msg.Email,
		"message_subject", msg.Subject,
		"sent_at", msg.Timestamp.Format(time.RFC1123),
	)
	return nil
}
