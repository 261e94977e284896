package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger writing to stderr so command output on stdout stays clean.
// When debug is true, uses development config (human-readable, debug level); otherwise
// production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
