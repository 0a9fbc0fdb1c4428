package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// loggingMiddleware logs every incoming method call with its duration.
func loggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			if err != nil {
				slog.Error("method call failed",
					"method", method,
					"duration_ms", elapsed.Milliseconds(),
					"error", err)
			} else {
				slog.Info("method call completed",
					"method", method,
					"duration_ms", elapsed.Milliseconds())
			}
			return result, err
		}
	}
}
