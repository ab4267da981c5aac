package logging

import (
	"os"
	"strings"

	"dailytrack/internal/config"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger from cfg.
func Init(cfg *config.LogConfig) {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Component returns the logger used by a named component.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
