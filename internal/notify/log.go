package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the service log. It is used when no
// mail server is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Send(ctx context.Context, recipient, subject string, alerts []AlertItem) error {
	n.log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Int("alerts", len(alerts)).
		Msg("maintenance alert notification")
	for _, alert := range alerts {
		n.log.Info().
			Str("plate_number", alert.PlateNumber).
			Str("severity", alert.Severity).
			Msg(alert.Message)
	}
	return nil
}
