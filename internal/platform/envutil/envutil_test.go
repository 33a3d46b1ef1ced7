package envutil

import (
	"testing"
	"time"
)

func TestReadsWithDefaults(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "12")
	t.Setenv("ENVUTIL_TEST_BAD_INT", "twelve")
	t.Setenv("ENVUTIL_TEST_BOOL", "true")
	t.Setenv("ENVUTIL_TEST_DUR", "90s")
	t.Setenv("ENVUTIL_TEST_SECS", "30")
	t.Setenv("ENVUTIL_TEST_BLANK", "   ")

	if got := Int("ENVUTIL_TEST_INT", 1, nil); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
	if got := Int("ENVUTIL_TEST_BAD_INT", 1, nil); got != 1 {
		t.Fatalf("Int bad: want=1 got=%d", got)
	}
	if got := Bool("ENVUTIL_TEST_BOOL", false, nil); !got {
		t.Fatalf("Bool: want=true")
	}
	if got := Duration("ENVUTIL_TEST_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("Duration: want=90s got=%s", got)
	}
	if got := Duration("ENVUTIL_TEST_SECS", time.Second, nil); got != 30*time.Second {
		t.Fatalf("Duration secs: want=30s got=%s", got)
	}
	if got := String("ENVUTIL_TEST_BLANK", "dflt", nil); got != "dflt" {
		t.Fatalf("String blank: want=dflt got=%q", got)
	}
	if got := String("ENVUTIL_TEST_MISSING", "dflt", nil); got != "dflt" {
		t.Fatalf("String missing: want=dflt got=%q", got)
	}
}
