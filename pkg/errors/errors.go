// Package errors provides the error taxonomy for grove model parsing and
// compilation. Every error produced while loading a model file is a
// FormatError, SchemaViolationError, or ConsistencyError, each carrying
// enough location context (tree index, node index, offending key) to point
// back at the text file. DimensionError covers prediction inputs whose shape
// disagrees with the model. All constructors attach a stack trace via
// cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// FormatError reports that a file is not a recognized LightGBM model file:
// the leading "tree"/"version=" marker lines are absent, a tree block's first
// line is malformed, the "end of trees" terminator is missing, or the
// trailing pandas_categorical line cannot be located.
type FormatError struct {
	Path   string // model file path, if known
	Line   string // offending line, truncated for display
	Reason string
}

func (e *FormatError) Error() string {
	msg := "grove: ill-formatted model file"
	if e.Path != "" {
		msg = fmt.Sprintf("grove: %s: ill-formatted model file", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Line != "" {
		msg += fmt.Sprintf(" (line %q)", truncate(e.Line, 60))
	}
	return msg
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *FormatError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("path", e.Path).
		Str("line", truncate(e.Line, 60)).
		Str("reason", e.Reason).
		Str("type", "FormatError")
}

// NewFormatError creates a FormatError with a stack trace attached.
func NewFormatError(path, line, reason string) error {
	return errors.WithStack(&FormatError{Path: path, Line: line, Reason: reason})
}

// SchemaViolationError reports a block that does not satisfy its declared
// schema: a non-nullable key is missing, or a value fails to coerce to the
// declared scalar type.
type SchemaViolationError struct {
	Key        string // schema key involved
	BlockIndex int    // 0 = header block, n>=1 = n-th tree block
	Value      string // offending raw token, empty for missing keys
	Reason     string
}

func (e *SchemaViolationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("grove: block %d: key %q: %s (got %q)", e.BlockIndex, e.Key, e.Reason, e.Value)
	}
	return fmt.Sprintf("grove: block %d: key %q: %s", e.BlockIndex, e.Key, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *SchemaViolationError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("key", e.Key).
		Int("block_index", e.BlockIndex).
		Str("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "SchemaViolationError")
}

// NewSchemaViolationError creates a SchemaViolationError with a stack trace attached.
func NewSchemaViolationError(key string, blockIndex int, value, reason string) error {
	return errors.WithStack(&SchemaViolationError{Key: key, BlockIndex: blockIndex, Value: value, Reason: reason})
}

// ConsistencyError reports a cross-field invariant failure inside an
// otherwise well-formed tree record: parallel array length mismatch,
// categorical node count disagreeing with num_cat, an out-of-range child
// index, or a node left without its required payload after finalization.
type ConsistencyError struct {
	TreeIndex int // index of the offending tree, -1 if not tree-scoped
	NodeIndex int // index of the offending node, -1 if not node-scoped
	Reason    string
}

func (e *ConsistencyError) Error() string {
	switch {
	case e.TreeIndex >= 0 && e.NodeIndex >= 0:
		return fmt.Sprintf("grove: tree %d: node %d: %s", e.TreeIndex, e.NodeIndex, e.Reason)
	case e.TreeIndex >= 0:
		return fmt.Sprintf("grove: tree %d: %s", e.TreeIndex, e.Reason)
	default:
		return fmt.Sprintf("grove: %s", e.Reason)
	}
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ConsistencyError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Int("tree_index", e.TreeIndex).
		Int("node_index", e.NodeIndex).
		Str("reason", e.Reason).
		Str("type", "ConsistencyError")
}

// NewConsistencyError creates a tree-scoped ConsistencyError with a stack trace attached.
// Pass -1 for nodeIndex when the failure is not specific to one node.
func NewConsistencyError(treeIndex, nodeIndex int, reason string) error {
	return errors.WithStack(&ConsistencyError{TreeIndex: treeIndex, NodeIndex: nodeIndex, Reason: reason})
}

// DimensionError reports input data whose shape disagrees with the model,
// e.g. a prediction matrix with the wrong number of feature columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("grove: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	common sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty input is given where data is required.
	ErrEmptyData = New("empty data")
)
