package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

func Setup(level, mode string) {
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		parsedLevel = logrus.InfoLevel
	}
	log.SetLevel(parsedLevel)

	if mode == "development" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}
}

func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func withContext(ctx context.Context) *logrus.Entry {
	entry := log.WithFields(logrus.Fields{})
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(fields)
}

// WithEndpoint tags entries with the upstream endpoint being called.
func WithEndpoint(endpoint string) *logrus.Entry {
	return log.WithField("endpoint", endpoint)
}

// WithCustomer tags entries with a customer id. Customer attribute values
// must never be logged.
func WithCustomer(customerID string) *logrus.Entry {
	return log.WithField("customer_id", customerID)
}

// WithTrace returns an entry carrying the trace id from ctx, if any.
func WithTrace(ctx context.Context) *logrus.Entry {
	return withContext(ctx)
}

func Debug(msg string) {
	log.Debug(msg)
}

func Info(msg string) {
	log.Info(msg)
}

func Warn(msg string) {
	log.Warn(msg)
}

func Error(msg string) {
	log.Error(msg)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
