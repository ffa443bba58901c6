package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New("pager.open", IoError, errors.New("no such file"), nil)
	msg := err.Error()
	if !strings.Contains(msg, "pager.open") || !strings.Contains(msg, "IoError") || !strings.Contains(msg, "no such file") {
		t.Errorf("Error() = %v, missing expected components", msg)
	}
}

func TestErrorMessageWithContext(t *testing.T) {
	err := New("pager.readPage", OutOfRange, errors.New("bad page"), map[string]interface{}{"page": 5})
	msg := err.Error()
	if !strings.Contains(msg, "context") {
		t.Errorf("Error() = %v, want it to mention context", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New("op", CorruptPage, cause, nil)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	err := New("op", UnknownTable, errors.New("missing"), nil)
	if !Is(err, UnknownTable) {
		t.Errorf("Is(err, UnknownTable) = false, want true")
	}
	if Is(err, UnknownColumn) {
		t.Errorf("Is(err, UnknownColumn) = true, want false")
	}
}

func TestIsWithWrappedPlainError(t *testing.T) {
	if Is(errors.New("plain"), IoError) {
		t.Errorf("Is() on a plain error should be false")
	}
}

func TestKindString(t *testing.T) {
	if Kind(999).String() != "Unknown" {
		t.Errorf("Kind(999).String() = %v, want Unknown", Kind(999).String())
	}
	if UnsupportedQuery.String() != "UnsupportedQuery" {
		t.Errorf("UnsupportedQuery.String() = %v, want UnsupportedQuery", UnsupportedQuery.String())
	}
}
