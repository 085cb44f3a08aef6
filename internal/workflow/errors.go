package workflow

import (
	"fmt"
	"strings"
)

// ErrorKind classifies node failures for retry policy matching.
type ErrorKind string

const (
	ErrorKindClassification ErrorKind = "classification"
	ErrorKindExtraction     ErrorKind = "extraction"
	ErrorKindEnrichment     ErrorKind = "enrichment"
	ErrorKindMerge          ErrorKind = "merge"
	ErrorKindValidation     ErrorKind = "validation"
	ErrorKindStorage        ErrorKind = "storage"
	ErrorKindIO             ErrorKind = "io"
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindInternal       ErrorKind = "internal"
)

// NodeError is a node-local failure carrying its kind for retry matching.
type NodeError struct {
	Kind    ErrorKind `json:"kind"`
	NodeID  string    `json:"node_id"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *NodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [node: %s]: %s (caused by: %v)", e.Kind, e.NodeID, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [node: %s]: %s", e.Kind, e.NodeID, e.Message)
}

func (e *NodeError) Unwrap() error { return e.Cause }

// NewNodeError wraps a failure with its kind and origin node.
func NewNodeError(kind ErrorKind, nodeID string, err error) *NodeError {
	msg := "node execution failed"
	if err != nil {
		msg = err.Error()
	}
	return &NodeError{Kind: kind, NodeID: nodeID, Message: msg, Cause: err}
}

// KindOf extracts the error kind, defaulting to internal.
func KindOf(err error) ErrorKind {
	if ne, ok := err.(*NodeError); ok {
		return ne.Kind
	}
	return ErrorKindInternal
}

// ConfigError reports every problem found while validating a graph
// definition. Configuration problems are fatal at load time and can never
// surface during a run.
type ConfigError struct {
	Issues []string `json:"issues"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid workflow definition: %s", strings.Join(e.Issues, "; "))
}
