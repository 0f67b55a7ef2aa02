package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("duplicate"), http.StatusConflict},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Internal("boom", errors.New("cause")), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := tc.err.Status(); got != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestFromPassesThroughKindedErrors(t *testing.T) {
	original := NotFound("missing thing")

	extracted := From(fmt.Errorf("handler context: %w", original))
	if extracted.Kind != KindNotFound || extracted.Message != "missing thing" {
		t.Fatalf("expected wrapped error to surface, got %+v", extracted)
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")

	wrapped := From(cause)
	if wrapped.Kind != KindInternal {
		t.Fatalf("expected internal kind, got %v", wrapped.Kind)
	}
	if wrapped.Message == cause.Error() {
		t.Fatal("internal cause must not leak into the client message")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected the cause to remain in the chain")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("dup"))

	if !IsKind(err, KindConflict) {
		t.Fatal("expected conflict kind through wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Fatal("kind must not match a different kind")
	}
	if IsKind(errors.New("plain"), KindConflict) {
		t.Fatal("plain errors carry no kind")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Internal("storage failed", errors.New("timeout"))
	if err.Error() != "storage failed: timeout" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}

	bare := Validation("bad input")
	if bare.Error() != "bad input" {
		t.Fatalf("unexpected error string: %s", bare.Error())
	}
}
