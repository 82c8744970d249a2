package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with error details.
type ErrorResponse struct {
	Code          string         `json:"code,omitempty"`
	Error         string         `json:"error"`
	Message       string         `json:"message,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	ErrorInstance error          `json:"-"`
	RequestID     string         `json:"request_id,omitempty"`
}

// HandleError maps domain and platform errors to HTTP responses.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var agentErr *domainerrors.AgentError
	if errors.As(err, &agentErr) {
		reqCtx.AbortWithStatusJSON(agentStatusCode(agentErr), ErrorResponse{
			Code:          agentErr.Code,
			Error:         message,
			Message:       agentErr.Message,
			Details:       agentErr.Details,
			ErrorInstance: agentErr,
		})
		return
	}

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType())
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          platformErr.GetUUID(),
			Error:         message,
			Message:       message,
			ErrorInstance: platformErr,
			RequestID:     platformErr.GetRequestID(),
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	})
}

// HandleNewError creates a new typed error at the route layer and handles it.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())
	reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	})
}

func agentStatusCode(err *domainerrors.AgentError) int {
	switch err.Code {
	case domainerrors.ErrCodeSchemaIncomplete:
		return http.StatusConflict
	case domainerrors.ErrCodeIngestionFailed, domainerrors.ErrCodeUnsupportedFile:
		return http.StatusBadRequest
	case domainerrors.ErrCodeExternalModel:
		return http.StatusBadGateway
	case domainerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
