package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request ID; the client receives
// the mapped user message and its support code. statusFor decides the HTTP
// status from the error's type:
//
//	classification errors (columns, units, temporal spec)  422
//	invalid dataset ID, bad body, structural mismatch       400
//	dataset never checked                                  404
//	body too large                                         413
//	too many checks, history not configured                503
//	check timed out                                        504
//	engine contract violations, corrupt records, others    500

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/logging"
)

var (
	errHistoryDisabled = errors.New("history not configured")
	errInvalidRequest  = errors.New("invalid request")
)

// invalidRequest marks err as the client's fault.
func invalidRequest(err error) error {
	return fmt.Errorf("%w: %w", errInvalidRequest, err)
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var structural *core.StructuralError
	switch {
	case core.IsClassificationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidDatasetID),
		errors.Is(err, errInvalidRequest),
		errors.As(err, &structural):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotChecked):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyChecks), errors.Is(err, errHistoryDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	if errors.As(err, new(*http.MaxBytesError)) {
		userMsg = core.UserMessage{
			Message: "The request body is too large",
			Action:  fmt.Sprintf("Send at most %d bytes", s.cfg.Checker.MaxBodySize),
			Code:    "REQ005",
		}
	}

	logger := logging.FromContext(r.Context())
	logArgs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", logArgs...)
	} else {
		logger.Warn("request error", logArgs...)
	}

	if status == http.StatusServiceUnavailable && errors.Is(err, core.ErrTooManyChecks) {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
