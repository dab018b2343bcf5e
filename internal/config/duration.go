package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// parseDuration парсить рядок тривалості з конфігурації.
// Порожній рядок дає fallback, невалідний також, з попередженням у лог.
func parseDuration(value string, fallback time.Duration, field string) time.Duration {
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logrus.WithFields(logrus.Fields{
			"field":    field,
			"value":    value,
			"fallback": fallback.String(),
		}).Warn("Invalid duration in config, using default")
		return fallback
	}

	return parsed
}
