package email

import (
	"context"
	"io"
	"log/slog"
)

// DevSender logs outbound email instead of delivering it. The full HTML
// body is written at debug level so magic links can be followed from the
// local console.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a logging sender. A nil logger discards output.
func NewDevSender(log *slog.Logger) EmailSender {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DevSender{log: log}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.log.Info("dev email sender: delivery skipped",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
	)
	d.log.Debug("dev email sender: body", slog.String("html", params.BodyHTML))
	return nil
}
