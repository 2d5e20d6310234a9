package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("rate limited"), 429)
	wrapped := fmt.Errorf("api call failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	err := errors.New("invalid input: missing field")
	if IsTransient(err) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionReset(t *testing.T) {
	err := fmt.Errorf("write tcp: %w", syscall.ECONNRESET)
	if !IsTransient(err) {
		t.Error("ECONNRESET should be transient")
	}
}

func TestIsTransient_ConnectionRefused(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	if !IsTransient(err) {
		t.Error("ECONNREFUSED should be transient")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range patterns {
		err := errors.New(p)
		if !IsTransient(err) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, code := range transient {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}

	permanent := []int{200, 201, 400, 401, 403, 404, 405, 409, 422}
	for _, code := range permanent {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to NOT be transient", code)
		}
	}
}

func TestIsTransient_ExplicitPermanentError(t *testing.T) {
	// Explicit PermanentError wins even when the message matches a
	// transient string pattern.
	err := NewPermanentError(errors.New("connection reset by peer"), 400)
	if IsTransient(err) {
		t.Error("PermanentError should never be transient")
	}
}

func TestIsPermanent(t *testing.T) {
	inner := NewPermanentError(errors.New("bad request"), 400)
	wrapped := fmt.Errorf("query failed: %w", inner)
	if !IsPermanent(wrapped) {
		t.Error("expected wrapped PermanentError to be permanent")
	}
	if IsPermanent(errors.New("plain error")) {
		t.Error("plain error should not report as PermanentError")
	}
}

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(NewTransientError(errors.New("overloaded"), 503)); got != "transient" {
		t.Errorf("expected transient, got %q", got)
	}
	if got := ClassifyError(NewPermanentError(errors.New("not found"), 404)); got != "permanent" {
		t.Errorf("expected permanent, got %q", got)
	}
	if got := ClassifyError(errors.New("invalid input")); got != "permanent" {
		t.Errorf("expected permanent for unclassified error, got %q", got)
	}
}

func TestPermanentError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	pe := NewPermanentError(inner, 404)

	if !errors.Is(pe, inner) {
		t.Error("PermanentError.Unwrap should return the inner error")
	}

	if pe.StatusCode != 404 {
		t.Errorf("expected StatusCode 404, got %d", pe.StatusCode)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 500)

	if !errors.Is(te, inner) {
		t.Error("TransientError.Unwrap should return the inner error")
	}

	if te.StatusCode != 500 {
		t.Errorf("expected StatusCode 500, got %d", te.StatusCode)
	}
}

func TestTransientError_ErrorMessage(t *testing.T) {
	inner := errors.New("something went wrong")
	te := NewTransientError(inner, 503)

	if te.Error() != "something went wrong" {
		t.Errorf("expected error message %q, got %q", inner.Error(), te.Error())
	}
}
