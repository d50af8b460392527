package logger

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey string

// RequestIDKey carries the per-request id through context.
const RequestIDKey ctxKey = "request_id"

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel applies a configured level name; unknown names fall back to info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// For returns an entry tagged with the request id when the context has one.
func For(ctx context.Context) *logrus.Entry {
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		return logrus.WithField("request_id", id)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
