package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/fulldump/box"
	"github.com/goccy/go-json"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/table"
)

type errBadRequest struct{ error }

func (e errBadRequest) Unwrap() error { return e.error }

func badRequest(err error) error { return errBadRequest{err} }

type errorBody struct {
	Message     string `json:"message"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
	Offset      *int64 `json:"offset,omitempty"`
}

// PrettyErrorInterceptor renders handler errors as
// {"error": {"message", "description", "code", "offset"}}.
func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {
		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		status, body := describe(err)
		w := box.GetResponse(ctx)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"error": body})
	}
}

func describe(err error) (int, errorBody) {
	body := errorBody{Message: err.Error()}
	var bad errBadRequest
	switch {
	case errors.Is(err, table.ErrTableNotFound):
		body.Description = "table not found"
		return http.StatusNotFound, body
	case errors.As(err, &bad):
		body.Description = "bad request"
		return http.StatusBadRequest, body
	}
	if re, ok := eachrow.AsRowError(err); ok && re.Code != eachrow.CodeInvariant {
		body.Description = "malformed JSONEachRow input"
		body.Code = re.Code
		if re.Offset >= 0 {
			off := re.Offset
			body.Offset = &off
		}
		return http.StatusBadRequest, body
	}
	body.Description = "unexpected error"
	return http.StatusInternalServerError, body
}
