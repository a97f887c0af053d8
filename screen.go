// screen.go — delegation to the screen-language sub-unparsers.
//
// The screen language has two schema generations with entirely different
// payload shapes, so their unparsers live outside this module and plug in
// through Options. When no unparser is registered for a node's generation
// the statement renders as an unknown-node placeholder and traversal
// continues.

package unrpyc

import "io"

// ScreenOptions is the configuration slice a screen unparser receives.
type ScreenOptions struct {
	ForceMultilineKwargs bool
	DecompilePython      bool
	DecompileScreencode  bool
	Comparable           bool

	// SkipIndent is set when the screen header must continue the line the
	// caller already opened (a collapsed "init -500 screen ..." form).
	SkipIndent bool
}

// ScreenUnparser renders one generation of the screen language.
//
// It writes to w starting at the given indentation level with the output
// cursor on lineNumber, and returns the line the cursor ends on so the
// caller's blank-line heuristic stays coherent across the delegation.
type ScreenUnparser interface {
	Render(w io.Writer, node *Screen, indentLevel, lineNumber int, opts ScreenOptions) (int, error)
}
