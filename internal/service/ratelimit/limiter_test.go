package ratelimit

import "testing"

func TestAllowBurstThenThrottle(t *testing.T) {
	l := New(3, 0)
	for i := 0; i < 3; i++ {
		if !l.Allow("c1") {
			t.Fatalf("burst token %d must be granted", i)
		}
	}
	if l.Allow("c1") {
		t.Fatalf("fourth request must be throttled")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New(1, 0)
	if !l.Allow("c1") || !l.Allow("c2") {
		t.Fatalf("each key gets its own bucket")
	}
	if l.Allow("c1") {
		t.Fatalf("c1 must be exhausted")
	}
}

func TestAllowUnlimitedWhenCapacityZero(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("c1") {
			t.Fatalf("zero capacity disables limiting")
		}
	}
}

func TestForgetResetsBucket(t *testing.T) {
	l := New(1, 0)
	if !l.Allow("c1") {
		t.Fatalf("first request must pass")
	}
	if l.Allow("c1") {
		t.Fatalf("bucket must be drained")
	}
	l.Forget("c1")
	if !l.Allow("c1") {
		t.Fatalf("forgotten key starts with a fresh bucket")
	}
}
