package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	base := New(KindNotFound, "gone")
	wrapped := fmt.Errorf("while loading: %w", base)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("kind = %v, want not found through wrapping", KindOf(wrapped))
	}
	if KindOf(goerrors.New("plain")) != KindServer {
		t.Fatal("unclassified errors must default to server kind")
	}
	if KindOf(nil) != KindServer {
		t.Fatal("nil defaults to server kind")
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := Wrap(KindValidation, "bad input", goerrors.New("detail"))
	if !goerrors.Is(err, New(KindValidation, "")) {
		t.Fatal("errors.Is must match on kind")
	}
	if goerrors.Is(err, New(KindNotFound, "")) {
		t.Fatal("errors.Is must not match a different kind")
	}
}

func TestClientMessageHidesCauses(t *testing.T) {
	cause := goerrors.New("pebble: corruption in L0")
	err := Wrap(KindServer, "store write failed", cause)
	if got := ClientMessage(err); got != "store write failed" {
		t.Fatalf("client message = %q", got)
	}
	if got := ClientMessage(cause); got != "internal error" {
		t.Fatalf("raw cause leaked: %q", got)
	}
	// the cause stays reachable for logs
	if !goerrors.Is(err, cause) {
		t.Fatal("cause must remain in the chain")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindForbidden:    http.StatusForbidden,
		KindUnauthorized: http.StatusUnauthorized,
		KindNotFound:     http.StatusNotFound,
		KindServer:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(New(kind, "x")); got != want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", kind, got, want)
		}
	}
	if HTTPStatus(goerrors.New("plain")) != http.StatusInternalServerError {
		t.Error("unclassified error must map to 500")
	}
}
