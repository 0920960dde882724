package apperr

import (
	"errors"
	"io/fs"
	"testing"
)

func TestNotFoundError_Unwrap(t *testing.T) {
	err := NotFound("auth/login")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "auth/login" {
		t.Errorf("errors.As = %+v", nf)
	}
	if err.Error() != `spec "auth/login": not found` {
		t.Errorf("message = %q", err.Error())
	}
}

func TestIOError_MatchesSentinelAndCause(t *testing.T) {
	err := &IOError{Op: "stat", Path: "/missing", Err: fs.ErrNotExist}
	if !errors.Is(err, ErrIO) {
		t.Error("expected ErrIO")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected underlying fs.ErrNotExist")
	}
}

func TestInvalid(t *testing.T) {
	if Invalid(nil) != nil {
		t.Error("Invalid(nil) should be nil")
	}
	err := Invalid(errors.New("spec_id: cannot be blank"))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
