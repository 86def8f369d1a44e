package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a production JSON logger for env "production" and a
// human-readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if strings.EqualFold(env, "production") {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
