package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/figure-planner/internal/figures"
	"github.com/jonathan/figure-planner/internal/proposal"
	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/uploads"
)

// errUploadsDisabled is returned by POST /uploads when no buckets are configured.
var errUploadsDisabled = errors.New("uploads are not configured")

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	ExistingID string `json:"existingId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *figures.ValidationError
		request    *uploads.RequestError
		duplicate  *store.DuplicateNameError
		conflict   *store.ConcurrentAllocationError
		notFound   *store.NotFoundError
		exhausted  *proposal.ExhaustedError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &request):
		return http.StatusBadRequest
	case errors.As(err, &duplicate), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	case errors.Is(err, figures.ErrGeneratorUnavailable), errors.Is(err, errUploadsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// newErrorResponse builds the body for err. Internal failures are not echoed
// to the client.
func newErrorResponse(err error, status int) ErrorResponse {
	if status == http.StatusInternalServerError {
		return ErrorResponse{Error: "internal server error"}
	}

	resp := ErrorResponse{Error: err.Error()}
	var (
		validation *figures.ValidationError
		request    *uploads.RequestError
		duplicate  *store.DuplicateNameError
		conflict   *store.ConcurrentAllocationError
		exhausted  *proposal.ExhaustedError
	)
	switch {
	case errors.As(err, &validation):
		resp.Field = validation.Field
	case errors.As(err, &request):
		resp.Field = request.Field
	case errors.As(err, &duplicate):
		resp.ExistingID = duplicate.ExistingID
	case errors.As(err, &conflict):
		resp.Retryable = conflict.Retryable()
	case errors.As(err, &exhausted):
		resp.Reason = exhausted.Reason
	}
	return resp
}
