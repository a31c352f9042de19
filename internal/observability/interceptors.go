// Package observability provides gRPC interceptors and the metrics/health HTTP server.
package observability

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"live-transcript-service/internal/observability/metrics"
)

// Health probes arrive every few seconds; they are only logged at trace level.
const healthServicePrefix = "/grpc.health.v1.Health/"

// UnaryServerInterceptor counts unary calls by method and status code.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observeCall(m, info.FullMethod, "unary", err, start)
		return resp, err
	}
}

// StreamServerInterceptor counts streams and tracks how many are open.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		m.RecordStreamStart()
		defer m.RecordStreamEnd()

		err := handler(srv, ss)
		observeCall(m, info.FullMethod, "stream", err, start)
		return err
	}
}

func observeCall(m *metrics.Metrics, method, kind string, err error, start time.Time) {
	code := status.Code(err).String()
	m.RecordGRPCCall(method, code)

	level := zerolog.DebugLevel
	switch {
	case err != nil:
		level = zerolog.WarnLevel
	case strings.HasPrefix(method, healthServicePrefix):
		level = zerolog.TraceLevel
	}
	log.WithLevel(level).
		Str("method", method).
		Str("kind", kind).
		Str("code", code).
		Dur("duration", time.Since(start)).
		Msg("gRPC call completed")
}
