package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrorHandler renders every error that reaches echo as an ErrorResponse.
// Middleware errors (KeyAuth, RateLimiter, binding) keep their message; any
// other error becomes a logged 500.
func JSONErrorHandler(logger *logrus.Logger, devMode bool) echo.HTTPErrorHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			resp := ErrorResponse{Error: httpErrorMessage(he), Code: he.Code}
			if devMode && he.Internal != nil {
				resp.Details = he.Internal.Error()
			}
			if he.Code >= http.StatusInternalServerError {
				requestLog(logger, c).WithError(err).Error("request failed")
			}
			_ = c.JSON(he.Code, resp)
			return
		}

		requestLog(logger, c).WithError(err).Error("unhandled error")
		resp := ErrorResponse{Error: "internal server error", Code: http.StatusInternalServerError}
		if devMode {
			resp.Details = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, resp)
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch msg := he.Message.(type) {
	case nil:
	case string:
		if msg != "" {
			return msg
		}
	case error:
		return msg.Error()
	default:
		return fmt.Sprint(msg)
	}
	return http.StatusText(he.Code)
}

func requestLog(logger *logrus.Logger, c echo.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Request().URL.Path,
	})
}
