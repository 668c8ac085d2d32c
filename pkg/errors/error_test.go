package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"revtrack/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code     errors.ErrorCode
		expected int
	}{
		{errors.Success, http.StatusOK},
		{errors.NotFound, http.StatusNotFound},
		{errors.ReviewNotFound, http.StatusNotFound},
		{errors.InvalidParams, http.StatusBadRequest},
		{errors.ValidationFailed, http.StatusBadRequest},
		{errors.InvalidValue, http.StatusBadRequest},
		{errors.RequiredFieldEmpty, http.StatusBadRequest},
		{errors.ServiceUnavailable, http.StatusServiceUnavailable},
		{errors.InternalServerError, http.StatusInternalServerError},
		{errors.DatabaseError, http.StatusInternalServerError},
		{errors.ReviewCreateFailed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.expected {
			t.Errorf("code %d: expected status %d, got %d", tc.code, tc.expected, got)
		}
	}
}

func TestWrapPreservesUnderlying(t *testing.T) {
	base := stderrors.New("connection refused")
	wrapped := errors.Wrap(base, errors.DatabaseError)

	if errors.GetCode(wrapped) != errors.DatabaseError {
		t.Errorf("unexpected code: %d", errors.GetCode(wrapped))
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error must unwrap to the original")
	}
	if wrapped.Error() != "connection refused" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if errors.Wrap(nil, errors.DatabaseError) != nil {
		t.Error("wrapping nil must yield nil")
	}
}

func TestGetCodeFallbacks(t *testing.T) {
	if errors.GetCode(nil) != errors.Success {
		t.Error("nil error must map to Success")
	}
	if errors.GetCode(stderrors.New("plain")) != errors.InternalServerError {
		t.Error("foreign errors must map to InternalServerError")
	}
}

func TestIs(t *testing.T) {
	err := errors.New(errors.ReviewNotFound)
	if !errors.Is(err, errors.ReviewNotFound) {
		t.Error("expected code match")
	}
	if errors.Is(err, errors.DatabaseError) {
		t.Error("unexpected code match")
	}
	if errors.Is(nil, errors.ReviewNotFound) {
		t.Error("nil must never match")
	}
}

func TestValidationError(t *testing.T) {
	err := errors.ValidationError("title", "must not be blank")
	if errors.GetCode(err) != errors.ValidationFailed {
		t.Errorf("unexpected code: %d", errors.GetCode(err))
	}
	if err.Details["field"] != "title" || err.Details["reason"] != "must not be blank" {
		t.Errorf("details missing: %+v", err.Details)
	}
	if err.Code.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("validation errors must map to 400, got %d", err.Code.HTTPStatus())
	}
}
