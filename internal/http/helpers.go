package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/symptomchecker/internal/provider"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// RowsResponse reports how many rows an update or delete affected.
type RowsResponse struct {
	Rows int64 `json:"rows"`
}

// CreatedResponse carries the path of a newly inserted row.
type CreatedResponse struct {
	URI string `json:"uri"`
	ID  int64  `json:"id"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeUnroutable  = "unroutable_resource"
	CodeValidation  = "validation_error"
	CodeUnsupported = "unsupported_operation"
	CodeStorage     = "storage_error"
	CodeBadRequest  = "bad_request"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeBadRequest})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, log zerolog.Logger, err error, context string) {
	log.Error().Err(err).Str("context", context).Msg("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeStorage})
}

// respondProviderError maps the provider error taxonomy to HTTP statuses.
func respondProviderError(c *gin.Context, log zerolog.Logger, err error, context string) {
	var verr *provider.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   verr.Error(),
			Code:    CodeValidation,
			Details: gin.H{"column": verr.Column},
		})
	case errors.Is(err, provider.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeValidation})
	case errors.Is(err, provider.ErrUnroutableResource):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeUnroutable})
	case errors.Is(err, provider.ErrUnsupportedOperation):
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: err.Error(), Code: CodeUnsupported})
	default:
		respondInternalError(c, log, err, context)
	}
}
