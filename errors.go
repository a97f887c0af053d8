// errors.go — the decompiler's error taxonomy.
//
// Rendering is a pure function of the input tree and options, so nothing
// here is retryable: a StructuralError means the tree itself violates the
// pairing grammar and re-rendering cannot succeed. Unrecognized node kinds
// are deliberately NOT errors — they render as tagged placeholders so a
// partially understood archive still yields useful output.

package unrpyc

import "fmt"

// StructuralError reports a paired postfix transition whose trailing with
// statement does not carry the armed expression. It aborts the whole unit.
type StructuralError struct {
	Expected string // the expression recorded by the paired with node
	Actual   string // what the sibling two nodes ahead actually carries
	Line     int    // recorded line of the offending node
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: unmatched paired with: %q != %q",
		e.Line, e.Expected, e.Actual)
}
