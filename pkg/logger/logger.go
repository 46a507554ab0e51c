package logger

import (
	"context"

	"go.uber.org/zap"

	"projectboard/pkg/trace"
)

var Log *zap.Logger

func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithRequestID returns a logger that carries the request id from the context.
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	requestID := trace.FromContext(ctx)
	if requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}
