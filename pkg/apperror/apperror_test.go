package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("deduct: %w", Wrap(UpstreamUnavailable, "identity provider unavailable", cause))

	if got := KindOf(wrapped); got != UpstreamUnavailable {
		t.Errorf("KindOf() = %s, want %s", got, UpstreamUnavailable)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
	if got := Message(wrapped); got != "identity provider unavailable" {
		t.Errorf("Message() = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	if got := KindOf(err); got != Internal {
		t.Errorf("KindOf() = %s, want %s", got, Internal)
	}
	if Is(nil, Internal) {
		t.Error("nil error must not match any kind")
	}
	if got := Message(err); got != "internal server error" {
		t.Errorf("Message() = %q", got)
	}
}
