package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
)

// RequestID ensures every request carries an X-Request-ID header, generating
// one when the client did not send it.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.Set("request_id", requestID)

			return next(c)
		}
	}
}

// RequestLogger logs one structured line per request, leveled by the response
// status code.
func RequestLogger(zapLogger *logger.ZapLogger) echo.MiddlewareFunc {
	if zapLogger == nil {
		zapLogger = logger.GetGlobalLogger()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			path := c.Request().URL.Path
			if raw := c.Request().URL.RawQuery; raw != "" {
				path = path + "?" + raw
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			requestID, _ := c.Get("request_id").(string)
			fields := []logger.Field{
				logger.Int("status", c.Response().Status),
				logger.Duration("latency", time.Since(start)),
				logger.String("client_ip", c.RealIP()),
				logger.String("method", c.Request().Method),
				logger.String("path", path),
				logger.String("request_id", requestID),
			}

			switch {
			case c.Response().Status >= 500:
				zapLogger.Error("Server error", fields...)
			case c.Response().Status >= 400:
				zapLogger.Warn("Client error", fields...)
			default:
				zapLogger.Info("Request processed", fields...)
			}

			return err
		}
	}
}
