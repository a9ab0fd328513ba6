// Package logging builds the zap loggers used across the facade server and
// the browse CLI.
//
// Production output is JSON; development output is colored console text.
// Components receive a *zap.Logger tagged with their name:
//
//	logger := logging.NewDefault()
//	frameLog := logger.Component("frame")
//	frameLog.Info("frame ready", zap.String("owner", owner))
package logging
