package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/selimozcann/linkflow/internal/apperr"
)

func TestIsMatchesKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("walk: %w", apperr.FetchFailed("Failed to fetch URL", cause))

	if !errors.Is(err, apperr.ErrFetchFailed) {
		t.Fatalf("expected fetch failed to match sentinel")
	}
	if errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("fetch failed must not match timeout")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via Unwrap")
	}
	if got := apperr.KindOf(err); got != apperr.KindFetchFailed {
		t.Fatalf("KindOf() = %q", got)
	}
	if got := apperr.KindOf(cause); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
}

func TestErrorString(t *testing.T) {
	if got := apperr.BlockedTarget("Blocked URL").Error(); got != "Blocked URL" {
		t.Fatalf("Error() = %q", got)
	}
	got := apperr.Timeout("hop timed out", errors.New("deadline")).Error()
	if got != "hop timed out: deadline" {
		t.Fatalf("Error() = %q", got)
	}
}
