package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mercari/go-circuitbreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/sanLimbu/tasksync/internal"
)

const otelName = "github.com/sanLimbu/tasksync/internal/rest"

// ErrorResponse represents a response containing an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func renderErrorResponse(w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	status := http.StatusInternalServerError

	var ierr *internal.Error

	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		status = http.StatusServiceUnavailable
	case !errors.As(err, &ierr):
		resp.Error = "internal error"
	default:
		switch ierr.Code() {
		case internal.ErrorCodeNotFound:
			status = http.StatusNotFound
		case internal.ErrorCodeInvalidArgument:
			status = http.StatusBadRequest
		case internal.ErrorCodeUnknown:
			resp.Error = "internal error"
		}
	}

	if err != nil {
		recordError(r.Context(), err)
	}

	renderResponse(w, r, resp, status)
}

func recordError(ctx context.Context, err error) {
	_, span := otel.Tracer(otelName).Start(ctx, "rest.renderErrorResponse")
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func renderResponse(w http.ResponseWriter, r *http.Request, res interface{}, status int) {
	render.Status(r, status)
	render.JSON(w, r, res)
}
