package ids

import (
	"testing"
	"time"
)

func TestNewIsSortableAndValid(t *testing.T) {
	a, b := New(), New()
	if len(a) != 26 || !Valid(a) {
		t.Fatalf("unexpected id %q", a)
	}
	if a >= b {
		t.Fatalf("ids not monotonic: %s >= %s", a, b)
	}
	ts, ok := Time(a)
	if !ok || time.Since(ts) > time.Minute {
		t.Fatalf("unexpected timestamp %v", ts)
	}
}

func TestValidRejects(t *testing.T) {
	for _, s := range []string{"", "short", "../../etc/passwd", "01ARZ3NDEKTSV4RRFFQ69G5FA!"} {
		if Valid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
