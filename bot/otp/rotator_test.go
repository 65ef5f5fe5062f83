package otp

import (
	"regexp"
	"testing"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestRotatorGeneratesSixDigitCode(t *testing.T) {
	r, err := NewRotator("@every 5m")
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}
	defer r.Stop()

	code := r.Current()
	if !sixDigits.MatchString(code) {
		t.Fatalf("code = %q, want six digits", code)
	}
	// The code is stable between rotations.
	if again := r.Current(); again != code {
		t.Fatalf("Current changed without a rotation: %q then %q", code, again)
	}
}

func TestRotatorRotateReplacesCode(t *testing.T) {
	r, err := NewRotator("@every 5m")
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}
	defer r.Stop()

	seen := map[string]bool{r.Current(): true}
	// rand over 900000 values: a handful of rotations colliding every time
	// would be astronomically unlikely.
	changed := false
	for i := 0; i < 10; i++ {
		r.rotate()
		code := r.Current()
		if !sixDigits.MatchString(code) {
			t.Fatalf("rotated code = %q", code)
		}
		if !seen[code] {
			changed = true
		}
		seen[code] = true
	}
	if !changed {
		t.Fatal("ten rotations never produced a new code")
	}
}

func TestRotatorRejectsBadSchedule(t *testing.T) {
	if _, err := NewRotator("not a schedule"); err == nil {
		t.Fatal("NewRotator accepted a malformed spec")
	}
}

func TestStaticSource(t *testing.T) {
	var src Source = Static("424242")
	if got := src.Current(); got != "424242" {
		t.Fatalf("Static.Current = %q", got)
	}
}
