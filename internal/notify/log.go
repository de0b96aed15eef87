package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes the code to the log instead of sending it. Development only;
// config validation refuses it in production.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier returns a LogNotifier writing to log.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	log.Warn("notify: log notifier enabled, OTP codes will be written to the log (development only)")
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, phone, code string) error {
	n.log.WithFields(logrus.Fields{"phone": phone, "code": code}).Info("OTP sent to " + phone)
	return nil
}
