package event

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

type zapAdapter struct {
	log    *zap.Logger
	fields watermill.LogFields
}

// NewWatermillLogger adapts zap to watermill's logger interface.
func NewWatermillLogger(log *zap.Logger) watermill.LoggerAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &zapAdapter{log: log.Named("watermill")}
}

func (a *zapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(a.zapFields(fields), zap.Error(err))...)
}

func (a *zapAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, a.zapFields(fields)...)
}

func (a *zapAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, a.zapFields(fields)...)
}

// Trace is very chatty in the Go channel pub/sub; map it to debug.
func (a *zapAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, a.zapFields(fields)...)
}

func (a *zapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapAdapter{log: a.log, fields: a.fields.Add(fields)}
}

func (a *zapAdapter) zapFields(fields watermill.LogFields) []zap.Field {
	all := a.fields.Add(fields)
	out := make([]zap.Field, 0, len(all))
	for k, v := range all {
		out = append(out, zap.Any(k, v))
	}
	return out
}
