package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Forbidden("denied"), http.StatusForbidden},
		{Internal("boom"), http.StatusInternalServerError},
		{Timeout("slow"), http.StatusGatewayTimeout},
		{RateLimited("busy"), http.StatusTooManyRequests},
		{CacheError("miss"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.err.StatusCode(); got != c.want {
			t.Errorf("kind %d: status = %d, want %d", c.err.Kind, got, c.want)
		}
	}
}

func TestFromPassesThrough(t *testing.T) {
	orig := NotFound("User not found")
	got := From(fmt.Errorf("wrapped: %w", orig))
	if got != orig {
		t.Fatalf("From did not unwrap to the original error")
	}
}

func TestFromWrapsUnknown(t *testing.T) {
	cause := errors.New("driver exploded")
	got := From(cause)
	if got.Kind != KindInternal {
		t.Fatalf("kind = %d, want internal", got.Kind)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("cause not preserved")
	}
}

func TestCacheErrorPrefix(t *testing.T) {
	e := CacheError("connection refused")
	if e.Message != "Cache Error : connection refused" {
		t.Fatalf("message = %q", e.Message)
	}
}
