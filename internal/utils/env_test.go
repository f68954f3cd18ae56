package utils

import "testing"

func TestSafeEnv(t *testing.T) {
	t.Setenv("ELIFE_TEST_KEY", "value")
	if got := SafeEnv("ELIFE_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("SafeEnv set = %q, want value", got)
	}
	if got := SafeEnv("ELIFE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("SafeEnv missing = %q, want fallback", got)
	}
}
