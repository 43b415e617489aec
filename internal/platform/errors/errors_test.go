package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeShareTokenExpired, "token expired")
	target := New(CodeShareTokenExpired, "different message")
	if !stderrors.Is(err, target) {
		t.Fatalf("Is(%v, %v) = false, want true", err, target)
	}

	other := New(CodeShareTokenNotFound, "token not found")
	if stderrors.Is(err, other) {
		t.Fatalf("Is(%v, %v) = true, want false", err, other)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeStorage, "persist snapshot", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("wrapped error does not match cause")
	}
	if err.Error() != "persist snapshot" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "persist snapshot")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeLinkAlreadyExists, "already linked"))
	if got := CodeOf(wrapped); got != CodeLinkAlreadyExists {
		t.Fatalf("CodeOf = %q, want %q", got, CodeLinkAlreadyExists)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain error = %q, want %q", got, CodeUnknown)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodePlayerTagEmpty, http.StatusBadRequest},
		{CodeShareTokenExpired, http.StatusGone},
		{CodeShareTokenNotFound, http.StatusNotFound},
		{CodeLinkAlreadyExists, http.StatusConflict},
		{CodeUpstreamUnreachable, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
