package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsAndChains(t *testing.T) {
	cause := errors.New("upstream 503")
	err := Wrap(ErrProvider, "analyze_main", "score document", "primary", cause)

	if !errors.Is(err, ErrProvider) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	for _, want := range []string{"analyze_main", "score document", "primary"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("message missing %q: %v", want, err)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("nil marker should default to provider: %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("empty detail fallback missing: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Wrap(ErrValidation, "validate", "check", "", nil), false},
		{Wrap(ErrConfiguration, "", "load", "", nil), false},
		{Wrap(ErrDeadEnd, "route", "", "", nil), false},
		{Wrap(ErrProvider, "extract", "", "", nil), true},
		{Wrap(ErrTimeout, "slow", "", "", nil), true},
		{Wrap(ErrCache, "cache_store", "", "", nil), true},
		{errors.New("unclassified"), true},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}
