package llm

import "testing"

func TestComputeBackoffDeterministic(t *testing.T) {
	params := BackoffParams{Model: "gpt-4o", RequestID: "42", AttemptIndex: 1}
	d1 := ComputeBackoff(params, DefaultBackoffPolicy)
	d2 := ComputeBackoff(params, DefaultBackoffPolicy)
	if d1 != d2 {
		t.Errorf("ComputeBackoff not deterministic for identical params: %v != %v", d1, d2)
	}
}

func TestComputeBackoffVariesByRequestID(t *testing.T) {
	p1 := BackoffParams{Model: "gpt-4o", RequestID: "1", AttemptIndex: 0}
	p2 := BackoffParams{Model: "gpt-4o", RequestID: "2", AttemptIndex: 0}
	if ComputeBackoff(p1, DefaultBackoffPolicy) == ComputeBackoff(p2, DefaultBackoffPolicy) {
		t.Skip("jitter collision across request IDs is possible but unlikely; not a correctness failure")
	}
}

func TestComputeBackoffExponentialGrowthCapped(t *testing.T) {
	policy := BackoffPolicy{BaseMs: 100, MaxMs: 1000, MaxJitterMs: 0, MaxAttempts: 10}
	d0 := ComputeBackoff(BackoffParams{Model: "m", RequestID: "r", AttemptIndex: 0}, policy)
	d1 := ComputeBackoff(BackoffParams{Model: "m", RequestID: "r", AttemptIndex: 1}, policy)
	d2 := ComputeBackoff(BackoffParams{Model: "m", RequestID: "r", AttemptIndex: 2}, policy)
	d5 := ComputeBackoff(BackoffParams{Model: "m", RequestID: "r", AttemptIndex: 5}, policy)

	if d0 >= d1 || d1 >= d2 {
		t.Fatalf("expected strictly increasing delays for early attempts: %v, %v, %v", d0, d1, d2)
	}
	if d5.Milliseconds() > 1000 {
		t.Errorf("delay exceeded MaxMs cap: %v", d5)
	}
}

func TestComputeBackoffNoJitterWhenZero(t *testing.T) {
	policy := BackoffPolicy{BaseMs: 500, MaxMs: 20000, MaxJitterMs: 0, MaxAttempts: 3}
	d := ComputeBackoff(BackoffParams{Model: "m", RequestID: "r", AttemptIndex: 0}, policy)
	if d.Milliseconds() != 500 {
		t.Errorf("expected exactly BaseMs with no jitter, got %v", d)
	}
}
