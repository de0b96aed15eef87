// Package logging builds the process logger: logrus with a JSON formatter and trace correlation.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Service is stamped on every line as the "service" field.
const Service = "agrovision-auth"

// New returns a JSON logger at level (info when empty or unknown) writing to out (stdout when nil).
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.AddHook(traceHook{})
	return logger
}

// traceHook adds the service name, plus trace and span ids when the entry carries a context with an active span.
type traceHook struct{}

func (traceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (traceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = Service
	if e.Context == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(e.Context)
	if sc.IsValid() {
		e.Data["trace_id"] = sc.TraceID().String()
		e.Data["span_id"] = sc.SpanID().String()
	}
	return nil
}
