package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// probes не логируются на уровне Info: оркестратор дёргает их постоянно.
var probes = map[string]struct{}{
	"/grpc.health.v1.Health/Check": {},
	"/grpc.health.v1.Health/Watch": {},
	"/grpc.health.v1.Health/List":  {},
}

// NewLoggingUnaryServerInterceptor пишет метод, код ответа и длительность вызова
// и превращает панику обработчика в codes.Internal.
func NewLoggingUnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic", zap.String("method", info.FullMethod), zap.Any("panic", r))
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			lvl := zapcore.InfoLevel
			switch {
			case code == codes.Internal || code == codes.Unknown:
				lvl = zapcore.ErrorLevel
			case code != codes.OK:
				lvl = zapcore.WarnLevel
			default:
				if _, ok := probes[info.FullMethod]; ok {
					lvl = zapcore.DebugLevel
				}
			}
			log.Log(lvl, "grpc call",
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		return handler(ctx, req)
	}
}
