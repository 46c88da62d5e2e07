package random_test

import (
	"strings"
	"testing"

	"callbreak-service/pkg/utils/random"
)

func TestJoinCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := random.JoinCode()
		if len(code) != random.JoinCodeLength {
			t.Fatalf("expected length %d, got %q", random.JoinCodeLength, code)
		}
		if strings.ContainsAny(code, "01IO") {
			t.Fatalf("code %q contains ambiguous characters", code)
		}
	}
}

func TestCodeNonPositiveLength(t *testing.T) {
	if got := random.Code(0); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}
