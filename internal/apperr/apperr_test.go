package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(KindNotFound, "user %d does not exist", 42)
	wrapped := fmt.Errorf("create order: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("expected kind %s, got %s", KindNotFound, KindOf(wrapped))
	}
	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound to see through the wrapping")
	}
	if IsTransport(wrapped) {
		t.Error("not-found must not classify as transport")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("unclassified errors should report KindInternal")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindTransport, cause, "lookup user")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !IsTransport(err) {
		t.Error("expected transport kind")
	}
}
