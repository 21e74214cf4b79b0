package llm

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// BackoffParams seeds the deterministic jitter for one retry attempt.
// Deterministic (rather than crypto/math random) so a replayed call
// sequence against a recorded fixture produces the same delays.
type BackoffParams struct {
	Model        string
	RequestID    string
	AttemptIndex int
}

// BackoffPolicy bounds the retry schedule.
type BackoffPolicy struct {
	BaseMs      int64
	MaxMs       int64
	MaxJitterMs int64
	MaxAttempts int
}

// DefaultBackoffPolicy is used by every provider backend unless overridden.
var DefaultBackoffPolicy = BackoffPolicy{
	BaseMs:      500,
	MaxMs:       20_000,
	MaxJitterMs: 250,
	MaxAttempts: 3,
}

// ComputeBackoff returns the delay before the given attempt, exponential in
// AttemptIndex and capped at MaxMs, plus deterministic jitter.
func ComputeBackoff(params BackoffParams, policy BackoffPolicy) time.Duration {
	factor := int64(1)
	if params.AttemptIndex > 0 {
		if params.AttemptIndex > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << params.AttemptIndex
		}
	}

	baseDelay := policy.BaseMs * factor
	if baseDelay > policy.MaxMs {
		baseDelay = policy.MaxMs
	}

	return time.Duration(baseDelay+deterministicJitter(params, policy)) * time.Millisecond
}

func deterministicJitter(params BackoffParams, policy BackoffPolicy) int64 {
	if policy.MaxJitterMs == 0 {
		return 0
	}
	seed := fmt.Sprintf("%s:%s:%d", params.Model, params.RequestID, params.AttemptIndex)
	hash := sha256.Sum256([]byte(seed))
	jitterBasis := binary.BigEndian.Uint64(hash[:8])
	return int64(jitterBasis % uint64(policy.MaxJitterMs))
}
