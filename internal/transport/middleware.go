package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logging logs every request and its outcome.
func Logging(logger *zap.Logger) Middleware {
	return func(next RoundTripFunc) RoundTripFunc {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			logger.Debug("API request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

			resp, err := next(req)
			if err != nil {
				logger.Warn("API request error",
					zap.String("url", req.URL.String()),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				return nil, err
			}

			fields := []zap.Field{
				zap.Int("status", resp.StatusCode),
				zap.String("url", req.URL.String()),
				zap.Duration("elapsed", time.Since(start)),
			}
			if resp.StatusCode >= 400 {
				logger.Warn("API response error", fields...)
			} else {
				logger.Debug("API response", fields...)
			}
			return resp, nil
		}
	}
}

// Header sets a request header on every request.
func Header(key, value string) Middleware {
	return func(next RoundTripFunc) RoundTripFunc {
		return func(req *http.Request) (*http.Response, error) {
			req.Header.Set(key, value)
			return next(req)
		}
	}
}
