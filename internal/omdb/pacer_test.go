package omdb

import (
	"testing"
	"time"
)

func TestPacerSpacesCalls(t *testing.T) {
	p := NewPacer(200 * time.Millisecond)

	now := time.Unix(0, 0)
	var sleeps []time.Duration
	p.now = func() time.Time { return now }
	p.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
		now = now.Add(d)
	}

	p.Wait()
	if len(sleeps) != 0 {
		t.Fatalf("first call should not sleep, sleeps=%v", sleeps)
	}

	p.Wait()
	if len(sleeps) != 1 {
		t.Fatalf("sleeps=%v want one wait", sleeps)
	}
	if sleeps[0] < 200*time.Millisecond {
		t.Fatalf("second call waited %v, want >= 200ms", sleeps[0])
	}
}

func TestPacerNoDelayNeverSleeps(t *testing.T) {
	p := NewPacer(0)

	var sleeps []time.Duration
	p.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	for i := 0; i < 5; i++ {
		p.Wait()
	}
	if len(sleeps) != 0 {
		t.Fatalf("sleeps=%v", sleeps)
	}
}

func TestPacerElapsedCallNeedsNoWait(t *testing.T) {
	p := NewPacer(200 * time.Millisecond)

	now := time.Unix(0, 0)
	var sleeps []time.Duration
	p.now = func() time.Time { return now }
	p.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	p.Wait()
	now = now.Add(time.Second)
	p.Wait()
	if len(sleeps) != 0 {
		t.Fatalf("sleeps=%v want none", sleeps)
	}
}
