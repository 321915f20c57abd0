// Package logger provides a context-aware structured logging facade
// over logrus, shared by every package in this module.
package logger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var root = logrus.New()

// InitLogger configures the package-level logrus instance. level is a
// logrus level name ("debug", "info", "warn", "error"); an unknown
// value falls back to "info".
func InitLogger(level string, jsonFormat bool) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	root.SetLevel(parsed)
	if jsonFormat {
		root.SetFormatter(&logrus.JSONFormatter{})
	} else {
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// GetLevel returns the current logging level.
func GetLevel() logrus.Level {
	return root.GetLevel()
}

// New returns a fresh, field-less entry bound to the root logger.
func New() *logrus.Entry {
	return logrus.NewEntry(root)
}

// entryFromContext extracts a request-scoped entry stashed by
// WithContext, or a fresh root entry if none was attached.
func entryFromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
			return e
		}
	}
	return New()
}

// WithContext attaches a logging entry to ctx so downstream calls to
// GetLogger/Info/Error inherit its fields.
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// CloneContext returns a context carrying a copy of the entry already
// attached to ctx (or a fresh one), useful at request-handler entry
// points so later field additions don't leak across requests.
func CloneContext(ctx context.Context) context.Context {
	e := entryFromContext(ctx)
	cloned := *e
	return WithContext(ctx, &cloned)
}

// With returns ctx with an additional field merged into its entry.
func With(ctx context.Context, key string, value interface{}) context.Context {
	return WithContext(ctx, entryFromContext(ctx).WithField(key, value))
}

// WithField is an alias of With kept for call-site parity.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	return With(ctx, key, value)
}

// WithLogFields merges a field map into ctx's entry.
func WithLogFields(ctx context.Context, fields map[string]interface{}) context.Context {
	return WithContext(ctx, entryFromContext(ctx).WithFields(logrus.Fields(fields)))
}

// LogFields returns the fields currently attached to ctx's entry.
func LogFields(ctx context.Context) logrus.Fields {
	return entryFromContext(ctx).Data
}

// GetLogger returns the logrus entry attached to ctx.
func GetLogger(ctx context.Context) *logrus.Entry {
	return entryFromContext(ctx)
}

func Debug(ctx context.Context, args ...interface{}) { entryFromContext(ctx).Debug(args...) }
func Info(ctx context.Context, args ...interface{})  { entryFromContext(ctx).Info(args...) }
func Warn(ctx context.Context, args ...interface{})  { entryFromContext(ctx).Warn(args...) }
func Error(ctx context.Context, args ...interface{}) { entryFromContext(ctx).Error(args...) }

func Debugf(ctx context.Context, format string, args ...interface{}) {
	entryFromContext(ctx).Debugf(format, args...)
}
func Infof(ctx context.Context, format string, args ...interface{}) {
	entryFromContext(ctx).Infof(format, args...)
}
func Warnf(ctx context.Context, format string, args ...interface{}) {
	entryFromContext(ctx).Warnf(format, args...)
}
func Errorf(ctx context.Context, format string, args ...interface{}) {
	entryFromContext(ctx).Errorf(format, args...)
}

// ErrorWithContext logs err together with every field already
// attached to ctx's entry.
func ErrorWithContext(ctx context.Context, err error) {
	entryFromContext(ctx).WithError(err).Error("request failed")
}

// ErrorWithFields logs err plus an ad hoc field map, without
// mutating ctx's entry.
func ErrorWithFields(ctx context.Context, err error, fields map[string]interface{}) {
	entryFromContext(ctx).WithFields(logrus.Fields(fields)).WithError(err).Error(err.Error())
}

// Audit records a security/compliance-relevant event at info level
// with an "audit" marker field, so log pipelines can filter on it.
func Audit(ctx context.Context, action string, fields map[string]interface{}) {
	entryFromContext(ctx).WithFields(logrus.Fields(fields)).WithField("audit", true).Info(action)
}

// Truncate shortens s to at most n runes, appending an ellipsis
// marker, for safe inclusion of user content in log lines.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s...(truncated, %d more runes)", string(r[:n]), len(r)-n)
}
