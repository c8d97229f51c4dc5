package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-jobboard-auth"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error    string            `json:"error"`
	TextCode string            `json:"text_code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// NewErrorHandler renders errors that reach fiber directly, such as
// unknown routes or oversized bodies.
func NewErrorHandler(logger auth.Logger, debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Describe(err)
		logFailure(logger, debug, c.Method(), c.Path(), status, err)
		return c.Status(status).JSON(body)
	}
}

// renderError maps rich errors to a status and a JSON body. Internal
// errors never leak their message.
func (s *Server) renderError(c router.Context, err error) error {
	status, body := Describe(err)
	logFailure(s.logger, s.cfg.Debug, c.Method(), c.Path(), status, err)
	return c.JSON(status, body)
}

func logFailure(logger auth.Logger, debug bool, method, path string, status int, err error) {
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", "method", method, "path", path, "error", err)
		return
	}

	if !debug {
		return
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && len(richErr.Metadata) > 0 {
		logger.Debug("request rejected", "path", path, "status", status, "metadata", print.MaybePrettyJSON(richErr.Metadata))
	}
}

// Describe returns the HTTP status and response body for err
func Describe(err error) (int, ErrorResponse) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse{Error: fiberErr.Message}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}

	status := statusFor(richErr)
	if status >= fiber.StatusInternalServerError {
		return status, ErrorResponse{Error: "internal server error"}
	}

	body := ErrorResponse{
		Error:    richErr.Message,
		TextCode: richErr.TextCode,
	}

	if goerrors.Is(err, auth.ErrValidationFailed) && len(richErr.Metadata) > 0 {
		body.Fields = make(map[string]string, len(richErr.Metadata))
		for k, v := range richErr.Metadata {
			if s, ok := v.(string); ok {
				body.Fields[k] = s
			}
		}
	}

	return status, body
}

func statusFor(err *goerrors.Error) int {
	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
