package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create work order: %w", Invalid("priority", "must be one of low, medium, high, critical"))
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatal("wrapped validation error should match ErrValidationFailed")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "priority" {
		t.Fatalf("errors.As = %+v", ve)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("validation error should not match ErrNotFound")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrForbidden, false},
		{fmt.Errorf("start: %w", ErrNotFound), false},
		{ErrUnauthorized, false},
		{Invalid("x", "required"), false},
		{errors.New("connection reset"), true},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
