package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide sugared logger. Development mode switches to
// the human-readable console encoder.
func New(dev bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
