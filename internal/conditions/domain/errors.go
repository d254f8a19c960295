package conditions

import (
	"fmt"
	"strings"
)

// IdentifierError reports an invalid site, station, sensor or alias name.
// Index points at the offending character of Input, -1 if the whole
// string is at fault.
type IdentifierError struct {
	Input  string
	Index  int
	Reason string
}

// Error renders the reason with a pointer line under the offending character.
func (e *IdentifierError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid identifier %q: %s", e.Input, e.Reason)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid identifier: %s\n", e.Reason)
	b.WriteString(e.Input)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("~", e.Index))
	b.WriteByte('^')
	return b.String()
}

// SyntaxError reports a malformed condition string: unbalanced parentheses
// or two tokens that may not be adjacent.
type SyntaxError struct {
	Left   string
	Right  string
	Reason string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Left != "" && e.Right != "":
		return fmt.Sprintf("syntax error: %q not allowed right before %q", e.Left, e.Right)
	case e.Left != "":
		return fmt.Sprintf("syntax error: %q %s", e.Left, e.Reason)
	default:
		return "syntax error: " + e.Reason
	}
}

// BlockError reports a leaf term that cannot be parsed into a block.
type BlockError struct {
	Raw    string
	Reason string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("bad block %q: %s", e.Raw, e.Reason)
}

// DuplicateConditionError reports a site+master_alias collision within
// one collection.
type DuplicateConditionError struct {
	ID string
}

func (e *DuplicateConditionError) Error() string {
	return fmt.Sprintf("condition identifier %q is already reserved", e.ID)
}

// RowError ties a condition error to its source row for reporting.
type RowError struct {
	Row         int
	ConditionID string
	Err         error
}

func (e RowError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e RowError) Unwrap() error { return e.Err }
