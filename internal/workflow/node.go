package workflow

import (
	"math"
	"time"
)

// NodeStatus tracks a node through one run:
// pending -> running -> {succeeded | failed | skipped}, with retrying
// between failed attempts.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusRunning   NodeStatus = "running"
	StatusRetrying  NodeStatus = "retrying"
	StatusSucceeded NodeStatus = "succeeded"
	StatusFailed    NodeStatus = "failed"
	StatusSkipped   NodeStatus = "skipped"
)

// Terminal reports whether the status is final for the run.
func (s NodeStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// BackoffStrategy selects how retry delays grow across attempts.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy governs re-execution of a failed node.
type RetryPolicy struct {
	MaxRetries int             `json:"max_retries"`
	Backoff    BackoffStrategy `json:"backoff"`
	Delay      time.Duration   `json:"delay"`
	MaxDelay   time.Duration   `json:"max_delay"`
	Multiplier float64         `json:"multiplier"`
	RetryOn    []ErrorKind     `json:"retry_on"`
}

// CalculateDelay returns the wait before the given retry attempt
// (0-based) according to the backoff strategy.
func (rp *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	switch rp.Backoff {
	case BackoffLinear:
		return rp.Delay + rp.Delay*time.Duration(attempt)
	case BackoffExponential:
		multiplier := rp.Multiplier
		if multiplier <= 0 {
			multiplier = 2
		}
		delay := time.Duration(float64(rp.Delay) * math.Pow(multiplier, float64(attempt)))
		if rp.MaxDelay > 0 && delay > rp.MaxDelay {
			return rp.MaxDelay
		}
		return delay
	default:
		return rp.Delay
	}
}

// Retryable reports whether a failure of the given kind qualifies for
// another attempt. Timeouts always qualify, and an empty RetryOn list
// means every kind does.
func (rp *RetryPolicy) Retryable(kind ErrorKind) bool {
	if kind == ErrorKindTimeout || len(rp.RetryOn) == 0 {
		return true
	}
	for _, k := range rp.RetryOn {
		if k == kind {
			return true
		}
	}
	return false
}

// CacheKeyKind selects what content feeds a node's cache key hash.
type CacheKeyKind string

const (
	// CacheKeyInputs hashes the node's resolved input map.
	CacheKeyInputs CacheKeyKind = "inputs"
	// CacheKeyFile hashes the content of the file named by the
	// "file_path" input.
	CacheKeyFile CacheKeyKind = "file"
)

// CachePolicy enables TTL-bounded output reuse keyed by a content hash.
type CachePolicy struct {
	Enabled bool          `json:"enabled"`
	TTL     time.Duration `json:"ttl"`
	Key     CacheKeyKind  `json:"key"`
}

// Node is the static configuration for one workflow step. Nodes are
// loaded once at process start and never mutated at run time.
type Node struct {
	ID           string        `json:"id"`
	Kind         string        `json:"kind"`
	Dependencies []string      `json:"dependencies,omitempty"`
	Retry        RetryPolicy   `json:"retry,omitzero"`
	Cache        CachePolicy   `json:"cache,omitzero"`
	Timeout      time.Duration `json:"timeout,omitempty"`

	// Condition gates execution against the node's resolved inputs.
	// When it evaluates false the node is skipped if SkipIfFalse is set,
	// otherwise it still runs.
	Condition   string `json:"condition,omitempty"`
	SkipIfFalse bool   `json:"skip_if_false,omitempty"`

	// Critical nodes force run rollback on failure instead of
	// partial-success continuation.
	Critical bool `json:"critical,omitempty"`

	// Checkpoint nodes persist their output after success so a resumed
	// run can skip already-completed upstream work.
	Checkpoint bool `json:"checkpoint,omitempty"`
}
