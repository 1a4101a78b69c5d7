package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrappedErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("predict: %w", Unreachable("prediction", cause))

	if !errors.Is(err, ErrNetworkUnreachable) {
		t.Fatalf("expected kind to match, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to match")
	}
	if errors.Is(err, ErrServiceRejected) {
		t.Fatalf("unreachable must not classify as rejected")
	}
	if got := HTTPStatus(err); got != http.StatusBadGateway {
		t.Fatalf("HTTPStatus() = %d, want %d", got, http.StatusBadGateway)
	}
	if got := Code(err); got != "NETWORK_UNREACHABLE" {
		t.Fatalf("Code() = %q", got)
	}
}

func TestRejectedKeepsMessageVerbatim(t *testing.T) {
	err := Rejected(http.StatusBadRequest, "Missing columns: ['BMI']")
	if err.Error() != "Missing columns: ['BMI']" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Message(err) != "Missing columns: ['BMI']" {
		t.Fatalf("Message() = %q", Message(err))
	}
	if err.Status != http.StatusBadRequest {
		t.Fatalf("expected upstream status kept, got %d", err.Status)
	}
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	if HTTPStatus(err) != http.StatusInternalServerError || Code(err) != "INTERNAL_ERROR" {
		t.Fatalf("expected internal classification for plain errors")
	}
	if Message(err) != "internal server error" {
		t.Fatalf("plain error text must not leak, got %q", Message(err))
	}
}
