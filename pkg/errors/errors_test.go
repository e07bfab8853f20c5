package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "cart api unreachable")

	if !stdErrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Errorf("code %q", err.Code())
	}
}

func TestWrapNilCause(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeInternal, nil, "boom")
	if err.Unwrap() != nil {
		t.Error("nil cause should stay nil")
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(CodeUnauthorized, "cart token rejected")
	outer := fmt.Errorf("op fetch: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeUnauthorized {
		t.Errorf("got %v", typed)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Error("plain error must not convert")
	}
	if As(nil) != nil {
		t.Error("nil must not convert")
	}
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "bad input")
	if !HasCode(err, CodeValidation) {
		t.Error("expected match")
	}
	if HasCode(err, CodeNotFound) {
		t.Error("unexpected match")
	}
	if HasCode(nil, CodeValidation) {
		t.Error("nil must not match")
	}
}

func TestMetadataFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("MADE_UP"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Errorf("%s: status %d want %d", tc.code, got, tc.status)
		}
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeDependency, "cart api error").WithDetails(map[string]any{"reason": "http"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["reason"] != "http" {
		t.Errorf("details %v", err.Details())
	}
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeDependency, stdErrors.New("inner"), "outer")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Errorf("code %q", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Errorf("chain %v", dump.Chain)
	}
	if Dump(nil).TopMessage != "" {
		t.Error("nil dump must be empty")
	}
}
