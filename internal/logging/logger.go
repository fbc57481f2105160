package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger: development output in dev, JSON otherwise.
func New(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}
