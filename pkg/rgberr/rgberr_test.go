// Copyright 2025 RGB Core Project

package rgberr

import (
	"errors"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(DoubleSpend, "input %s:%d already spent", "abcd", 7)
	if err.Code != DoubleSpend {
		t.Fatalf("expected code %v, got %v", DoubleSpend, err.Code)
	}
	if err.Err != nil {
		t.Fatal("expected New to leave Err nil")
	}
	want := "DoubleSpend: input abcd:7 already spent"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying failure")
	err := Wrap(VMDecodeError, cause, "decoding instruction at offset %d", 12)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to recover the *Error")
	}
	if target.Code != VMDecodeError {
		t.Fatalf("expected code %v, got %v", VMDecodeError, target.Code)
	}
}

func TestCodeStringKnownAndUnknown(t *testing.T) {
	if got := DoubleSpend.String(); got != "DoubleSpend" {
		t.Fatalf("got %q", got)
	}
	unknown := Code(9999)
	if got := unknown.String(); got != "Code(9999)" {
		t.Fatalf("got %q", got)
	}
}
