// Package logger wraps logrus behind package-level helpers so callers do not
// carry a logger instance around.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process-wide logger. Unknown values fall back to
// info level and text format.
func Init(level, format string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetOutput(os.Stderr)
}

func Debug(args ...interface{}) { log.Debug(args...) }

func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }

func Info(args ...interface{}) { log.Info(args...) }

func Infof(format string, args ...interface{}) { log.Infof(format, args...) }

func Warn(args ...interface{}) { log.Warn(args...) }

func Warnf(format string, args ...interface{}) { log.Warnf(format, args...) }

func Error(args ...interface{}) { log.Error(args...) }

func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }

func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }
