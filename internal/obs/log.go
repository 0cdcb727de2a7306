package obs

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger
)

// Logger returns the shared structured logger used across the module.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		})
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

// SetLevel parses lvl and applies it to the shared logger. Unknown levels are ignored.
func SetLevel(lvl string) {
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		Logger().WithField("level_input", lvl).Warn("unknown log level")
		return
	}
	Logger().SetLevel(parsed)
}

// LogRequest emits a structured JSON log line with common HTTP fields.
func LogRequest(entry map[string]any) {
	msg, _ := entry["msg"].(string)
	if msg == "" {
		msg = "request_complete"
	}
	fields := make(logrus.Fields, len(entry))
	for k, v := range entry {
		if k == "msg" || k == "level" || k == "ts" {
			continue
		}
		fields[k] = v
	}
	status, _ := entry["status"].(int)
	e := Logger().WithFields(fields)
	switch {
	case status >= 500:
		e.Error(msg)
	case status >= 400:
		e.Warn(msg)
	default:
		e.Info(msg)
	}
}
