package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expenseshare/internal/auth"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, caller and duration. Failures carry the Connect code
// and message; typed client errors log at Warn and everything else at Error.
//
// The caller is whoever Authenticate resolved, wherever it sits in the chain.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			c := &caller{userID: GetUserID(ctx)}

			resp, err := next(context.WithValue(ctx, callerKey, c), req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", c.userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal {
				attrs = append(attrs, "code", connectErr.Code(), "error", connectErr.Message())
				logger.WarnContext(ctx, "RPC error", attrs...)
			} else {
				attrs = append(attrs, "error", err)
				logger.ErrorContext(ctx, "RPC error", attrs...)
			}
			return resp, err
		}
	}
}

// Interceptors returns the server's interceptor chain, outermost first.
// Logging and metrics wrap authentication so rejected calls are seen too.
func Interceptors(logger *slog.Logger, metrics *Metrics, verifier auth.Verifier, users UserResolver) connect.Option {
	return connect.WithInterceptors(
		LoggingInterceptor(logger),
		metrics.Interceptor(),
		Authenticate(verifier, users),
	)
}
