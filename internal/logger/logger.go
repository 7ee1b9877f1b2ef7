// Package logger provides structured logging with zap.
package logger

import "go.uber.org/zap"

// New creates a zap.Logger for env, tagged with the service name.
// Production logs JSON at info level; anything else logs to the console at debug level.
func New(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("service", "mealbuddy"), zap.String("env", env))
}
