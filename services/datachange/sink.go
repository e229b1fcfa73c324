package datachange

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives the records emitted by the Service.
// handler.Batch implements it; ZapSink writes straight to a zap logger.
type Sink interface {
	Log(level zapcore.Level, message string, context map[string]any)
}

// ZapSink writes each record to a zap logger, with the context under the "context" field
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a ZapSink
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Log implements Sink
func (s *ZapSink) Log(level zapcore.Level, message string, context map[string]any) {
	if ce := s.logger.Check(level, message); ce != nil {
		ce.Write(zap.Any("context", context))
	}
}
