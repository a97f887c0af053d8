// Package unrpyc reconstructs Ren'Py script source from the statement
// graphs found in compiled script archives. The input tree only records
// final semantics plus source line numbers, so the renderers here also
// invert the grammar's sugar: implicit init wrappers, postfix "with"
// transition clauses, and dialogue fused into the menu that follows it.
package unrpyc

import (
	"fmt"
	"io"
	"strings"
)

// Version is the tool version, stamped into the provenance banner.
const Version = "0.4.0"

const banner = "# Decompiled by unrpyc (github.com/SeaGamerYu/unrpyc)"

// Options configure one render. The zero value gives human-oriented output
// with four-space indentation.
type Options struct {
	// ForceMultilineKwargs, DecompilePython and DecompileScreencode are
	// passed through to the screen-language unparsers.
	ForceMultilineKwargs bool
	DecompilePython      bool
	DecompileScreencode  bool

	// Comparable suppresses the banner, the blank-line heuristic and any
	// storage-order-dependent iteration, so structurally equal trees render
	// byte-identically. Meant for round-trip verification, not for humans.
	Comparable bool

	// Indent is the indentation unit; four spaces when empty.
	Indent string

	// ScreenV1 and ScreenV2 handle the two screen-language generations.
	// A Screen node whose generation has no unparser registered renders as
	// an unknown-node placeholder.
	ScreenV1 ScreenUnparser
	ScreenV2 ScreenUnparser
}

// Dump renders block to w: a provenance banner (unless Comparable), the
// statement sequence, then exactly one trailing newline. The output is
// buffered and only flushed to w on success, so a StructuralError leaves
// w untouched.
func Dump(w io.Writer, block Block, opts Options) error {
	d := newDecompiler(opts)
	if !opts.Comparable {
		d.write(banner)
	}
	d.skipIndent = opts.Comparable
	if err := d.printNodes(block, 0); err != nil {
		return err
	}
	d.write("\n")
	_, err := io.WriteString(w, d.buf.String())
	return err
}

type decompiler struct {
	writer
	opts Options
}

func newDecompiler(opts Options) *decompiler {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	d := &decompiler{opts: opts}
	d.indentation = opts.Indent
	d.comparable = opts.Comparable
	return d
}

// cursor walks one block. Renderers inspect neighbours through peek rather
// than indexing a shared slice, and the pairing registers live here so the
// one-token coupling between adjacent siblings stays block-scoped.
type cursor struct {
	block Block
	index int

	// pendingWith is the postfix-transition register: empty when absent,
	// otherwise armed with the recorded expression. pendingConsumed marks a
	// register a display statement has already rendered inline, which is
	// distinct from absent — the trailing with node must still be eaten.
	pendingWith     string
	pendingConsumed bool

	// pendingSay holds dialogue deferred into the menu that follows it.
	pendingSay *Say
}

func (c *cursor) current() Stmt { return c.block[c.index] }

// peek returns the sibling at the given offset, or nil outside the block.
func (c *cursor) peek(offset int) Stmt {
	i := c.index + offset
	if i < 0 || i >= len(c.block) {
		return nil
	}
	return c.block[i]
}

// printNodes renders every statement of block at the current indentation
// plus extraIndent. The depth is restored even when a renderer fails.
func (d *decompiler) printNodes(block Block, extraIndent int) error {
	d.indentLevel += extraIndent
	defer func() { d.indentLevel -= extraIndent }()
	c := &cursor{block: block}
	for c.index = 0; c.index < len(block); c.index++ {
		if err := d.printNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *decompiler) printNode(c *cursor) error {
	n := c.current()
	// TranslateString advances on its own: its recorded line points at the
	// "old" entry, not at the group header rendered above it.
	if _, ok := n.(*TranslateString); !ok {
		if line := n.Position(); line > 0 {
			d.advanceToLine(line)
		}
	}
	switch n := n.(type) {
	case *Label:
		return d.printLabel(c, n)
	case *Jump:
		d.printJump(n)
	case *Call:
		d.printCall(n)
	case *Return:
		d.printReturn(n)
	case *Pass:
		d.printPass(c)
	case *If:
		return d.printIf(n)
	case *While:
		return d.printWhile(n)
	case *Menu:
		return d.printMenu(c, n)
	case *Say:
		d.printSay(c, n)
	case *With:
		return d.printWith(c, n)
	case *Show:
		return d.printShow(c, n)
	case *Scene:
		return d.printScene(c, n)
	case *Hide:
		d.printHide(n)
	case *ShowLayer:
		return d.printShowLayer(n)
	case *Image:
		return d.printImage(n)
	case *Transform:
		return d.printTransform(n)
	case *Define:
		d.printDefine(n)
	case *Style:
		d.printStyle(n)
	case *Init:
		return d.printInit(n)
	case *Python:
		d.printPython(n.Code, false, n.Hide)
	case *EarlyPython:
		d.printPython(n.Code, true, n.Hide)
	case *UserStatement:
		d.indent()
		d.write(n.Text)
	case *Translate:
		return d.printTranslate(n)
	case *EndTranslate:
		// compiler-injected, renders nothing
	case *TranslateString:
		d.printTranslateString(c, n)
	case *TranslateBlock:
		return d.printTranslateBlock(n)
	case *Screen:
		d.printScreen(n)
	case *Unknown:
		d.printUnknown(n.Tag, n.Position())
	default:
		// The Stmt set is closed; reaching here means a new variant was
		// added without a renderer. Keep the output locatable anyway.
		d.printUnknown(fmt.Sprintf("%T", n), n.Position())
	}
	return nil
}

// shouldComeBefore reports whether fidelity mode must keep first rendered
// before second because the original source had it on an earlier line.
func (d *decompiler) shouldComeBefore(first, second int) bool {
	return d.comparable && first < second
}

// --- Flow control ---

func (d *decompiler) printLabel(c *cursor, n *Label) error {
	// A label directly after a call is the "from" clause of that call.
	if _, ok := c.peek(-1).(*Call); ok {
		d.writef(" from %s", n.Name)
		return nil
	}
	d.indent()
	d.writef("label %s%s:", n.Name, reconstructParams(n.Parameters))
	return d.printNodes(n.Body, 1)
}

func (d *decompiler) printJump(n *Jump) {
	d.indent()
	d.write("jump ")
	if n.Expression {
		d.writef("expression %s", n.Target)
	} else {
		d.write(n.Target)
	}
}

func (d *decompiler) printCall(n *Call) {
	d.indent()
	d.write("call ")
	if n.Expression {
		d.writef("expression %s", n.Label)
	} else {
		d.write(n.Label)
	}
	if n.Arguments != nil {
		if n.Expression {
			d.write(" pass ")
		}
		d.write(reconstructArgs(n.Arguments))
	}
}

func (d *decompiler) printReturn(n *Return) {
	d.indent()
	d.write("return")
	if n.Expression != "" {
		d.writef(" %s", n.Expression)
	}
}

func (d *decompiler) printPass(c *cursor) {
	// The compiler injects a pass after every call; only a pass that does
	// not follow a call (or a call's "from" label) was written by the author.
	if _, ok := c.peek(-1).(*Call); ok {
		return
	}
	if _, ok := c.peek(-1).(*Label); ok {
		if _, ok := c.peek(-2).(*Call); ok {
			return
		}
	}
	d.indent()
	d.write("pass")
}

func (d *decompiler) printIf(n *If) error {
	for i, entry := range n.Entries {
		d.indent()
		switch {
		case i == 0:
			d.writef("if %s:", entry.Condition)
		case i == len(n.Entries)-1 && strings.TrimSpace(entry.Condition) == "True":
			d.write("else:")
		default:
			d.writef("elif %s:", entry.Condition)
		}
		if err := d.printNodes(entry.Body, 1); err != nil {
			return err
		}
	}
	return nil
}

func (d *decompiler) printWhile(n *While) error {
	d.indent()
	d.writef("while %s:", n.Condition)
	return d.printNodes(n.Body, 1)
}

// --- Dialogue and menus ---

func (d *decompiler) printSay(c *cursor, n *Say) {
	// Dialogue that captions the menu right after it compiles to a
	// non-interacting say before the menu; move it back inside. Only a menu
	// whose first item has a body can have had a caption.
	if !n.Interact && n.Who != "" && n.WithExpr == "" && n.Attributes == nil {
		if m, ok := c.peek(1).(*Menu); ok && len(m.Items) > 0 && m.Items[0].Body != nil &&
			!d.shouldComeBefore(n.Position(), m.Position()) {
			c.pendingSay = n
			return
		}
	}
	d.printSayBody(n, false)
}

func (d *decompiler) printSayBody(n *Say, inMenu bool) {
	d.indent()
	if n.Who != "" {
		d.write(n.Who)
		for _, attr := range n.Attributes {
			d.writef(" %s", attr)
		}
		d.write(" ")
	}
	d.writef("\"%s\"", EscapeString(n.What))
	if !n.Interact && !inMenu {
		d.write(" nointeract")
	}
	if n.WithExpr != "" {
		d.writef(" with %s", n.WithExpr)
	}
}

func (d *decompiler) printMenu(c *cursor, n *Menu) error {
	d.indent()
	d.write("menu:")
	d.indentLevel++
	defer func() { d.indentLevel-- }()

	if c.pendingSay != nil {
		d.printSayBody(c.pendingSay, true)
		c.pendingSay = nil
	}
	if n.With != "" {
		d.indent()
		d.writef("with %s", n.With)
	}
	if n.Set != "" {
		d.indent()
		d.writef("set %s", n.Set)
	}
	for _, item := range n.Items {
		d.indent()
		d.writef("\"%s\"", EscapeString(item.Label))
		if item.Body == nil {
			continue // caption line, not a choice
		}
		if item.Condition != "True" {
			d.writef(" if %s", item.Condition)
		}
		d.write(":")
		if err := d.printNodes(item.Body, 1); err != nil {
			return err
		}
	}
	return nil
}

// --- Paired transitions ---

func (d *decompiler) printWith(c *cursor, n *With) error {
	if n.Paired != "" {
		// The leading half of the postfix sugar. The sibling two nodes
		// ahead must be the trailing half carrying the same expression.
		trailing, ok := c.peek(2).(*With)
		if !ok || trailing.Expr != n.Paired {
			serr := &StructuralError{Expected: n.Paired, Line: n.Position()}
			if ok {
				serr.Actual = trailing.Expr
				serr.Line = trailing.Position()
			}
			return serr
		}
		c.pendingWith = n.Paired
		c.pendingConsumed = false
		return nil
	}
	if c.pendingWith != "" {
		if !c.pendingConsumed {
			// Nothing between the pair could take the clause inline
			// (hide, say, ...): append it to the line just rendered.
			d.writef(" with %s", n.Expr)
		}
		c.pendingWith = ""
		c.pendingConsumed = false
		return nil
	}
	d.indent()
	d.writef("with %s", n.Expr)
	return nil
}

// consumePendingWith renders an armed register inline after a display
// statement. needSpace is false when the clause before it already ended in
// a space (imspecs from pre-6.17 archives keep the trailing space).
func (d *decompiler) consumePendingWith(c *cursor, needSpace bool) {
	if c.pendingWith == "" || c.pendingConsumed {
		return
	}
	if needSpace {
		d.write(" ")
	}
	d.writef("with %s", c.pendingWith)
	c.pendingConsumed = true
}

// --- Display directives ---

// printImspec renders the ordered optional clauses of an image spec and
// reports whether the output already ends with a space.
func (d *decompiler) printImspec(spec *ImageSpec) (trailingSpace bool) {
	if spec.Expression != "" {
		d.writef("expression %s", spec.Expression)
	} else {
		d.write(strings.Join(spec.NameParts, " "))
	}
	if spec.Alias != "" {
		d.writef(" as %s", spec.Alias)
	}
	if len(spec.Behind) > 0 {
		d.writef(" behind %s", strings.Join(spec.Behind, ", "))
	}
	if spec.Layer != "master" {
		d.writef(" onlayer %s", spec.Layer)
	}
	if spec.ZOrder != "" {
		d.writef(" zorder %s", spec.ZOrder)
	}
	if len(spec.AtExprs) > 0 {
		d.writef(" at %s", strings.Join(spec.AtExprs, ", "))
		return strings.HasSuffix(spec.AtExprs[len(spec.AtExprs)-1], " ")
	}
	return false
}

func (d *decompiler) printShow(c *cursor, n *Show) error {
	d.indent()
	d.write("show ")
	trailing := d.printImspec(&n.ImSpec)
	d.consumePendingWith(c, !trailing)
	return d.printATLSuffix(n.ATL)
}

func (d *decompiler) printScene(c *cursor, n *Scene) error {
	d.indent()
	d.write("scene")
	needSpace := true
	if n.ImSpec == nil {
		if n.Layer != "master" {
			d.writef(" onlayer %s", n.Layer)
		}
	} else {
		d.write(" ")
		needSpace = !d.printImspec(n.ImSpec)
	}
	d.consumePendingWith(c, needSpace)
	return d.printATLSuffix(n.ATL)
}

func (d *decompiler) printHide(n *Hide) {
	d.indent()
	d.write("hide ")
	d.printImspec(&n.ImSpec)
}

func (d *decompiler) printShowLayer(n *ShowLayer) error {
	d.indent()
	d.writef("show layer %s", n.Layer)
	if len(n.AtList) > 0 {
		d.writef(" at %s", strings.Join(n.AtList, ", "))
	}
	return d.printATLSuffix(n.ATL)
}

// --- Declarations ---

func (d *decompiler) printImage(n *Image) error {
	d.indent()
	d.writef("image %s", strings.Join(n.Name, " "))
	if n.Code != "" {
		d.writef(" = %s", n.Code)
		return nil
	}
	return d.printATLSuffix(n.ATL)
}

func (d *decompiler) printTransform(n *Transform) error {
	d.indent()
	d.writef("transform %s", n.Name)
	d.write(reconstructParams(n.Parameters))
	return d.printATLSuffix(n.ATL)
}

func (d *decompiler) printDefine(n *Define) {
	d.indent()
	if n.Store == "" || n.Store == "store" {
		d.writef("define %s = %s", n.VarName, n.Code)
	} else {
		d.writef("define %s.%s = %s", n.Store, n.VarName, n.Code)
	}
}

func (d *decompiler) printStyle(n *Style) {
	d.indent()
	d.writef("style %s", n.Name)
	var clauses []string
	if n.Parent != "" {
		clauses = append(clauses, "is "+n.Parent)
	}
	if n.Clear {
		clauses = append(clauses, "clear")
	}
	if n.Take != "" {
		clauses = append(clauses, "take "+n.Take)
	}
	for _, name := range n.Delattr {
		clauses = append(clauses, "del "+name)
	}
	if n.Variant != "" {
		clauses = append(clauses, "variant "+n.Variant)
	}
	for _, p := range n.Properties {
		clauses = append(clauses, p.Key+" "+p.Value)
	}
	if d.comparable {
		d.write(" " + strings.Join(clauses, " "))
		return
	}
	d.write(":")
	d.indentLevel++
	for _, clause := range clauses {
		d.indent()
		d.write(clause)
	}
	d.indentLevel--
}

// initForm classifies how an init wrapper prints, separate from the side
// effects of printing it.
type initForm int

const (
	initExplicit       initForm = iota // init [prio]: + indented body
	initInline                         // init [prio] <statement> on one line
	initCollapsed                      // wrapper implied by the child, skip it
	initTranslateGroup                 // split-up translate strings block
)

// classifyInit recovers the implicit init sugar: define/transform/style
// default to priority 0, screen to -500 and image to 990, so a wrapper
// matching its single child that way was never written out — unless
// fidelity mode shows the wrapper's line preceding the child's.
func (d *decompiler) classifyInit(n *Init) initForm {
	if len(n.Body) == 1 && !d.shouldComeBefore(n.Position(), n.Body[0].Position()) {
		prio := n.Priority
		switch n.Body[0].(type) {
		case *Screen:
			if prio == -500 {
				return initCollapsed
			}
		case *Define, *Transform, *Style:
			if prio == 0 {
				return initCollapsed
			}
		case *Image:
			if prio == 990 {
				return initCollapsed
			}
		}
	}
	if len(n.Body) > 0 && n.Priority == 0 && isTranslateStringGroup(n.Body) {
		return initTranslateGroup
	}
	if len(n.Body) == 1 && n.Position() >= n.Body[0].Position() {
		return initInline
	}
	return initExplicit
}

// isTranslateStringGroup reports whether body is entirely the
// translate-strings entries of a single language, which the compiler
// splits apart and rewraps in an init block.
func isTranslateStringGroup(body Block) bool {
	first, ok := body[0].(*TranslateString)
	if !ok {
		return false
	}
	for _, n := range body[1:] {
		ts, ok := n.(*TranslateString)
		if !ok || ts.Language != first.Language {
			return false
		}
	}
	return true
}

func (d *decompiler) printInit(n *Init) error {
	form := d.classifyInit(n)
	switch form {
	case initCollapsed, initTranslateGroup:
		return d.printNodes(n.Body, 0)
	}
	d.indent()
	d.write("init")
	if n.Priority != 0 {
		d.writef(" %d", n.Priority)
	}
	if form == initInline {
		d.write(" ")
		d.skipIndent = true
		return d.printNodes(n.Body, 0)
	}
	d.write(":")
	return d.printNodes(n.Body, 1)
}

// --- Embedded code ---

func (d *decompiler) printPython(code string, early, hide bool) {
	d.indent()
	if strings.HasPrefix(code, "\n") {
		d.write("python")
		if early {
			d.write(" early")
		}
		if hide {
			d.write(" hide")
		}
		d.write(":")
		d.indentLevel++
		for _, line := range SplitLogicalLines(code[1:]) {
			d.indent()
			d.write(line)
		}
		d.indentLevel--
		return
	}
	d.writef("$ %s", code)
}

// --- Translations ---

func languageOrNone(language string) string {
	if language == "" {
		return "None"
	}
	return language
}

func (d *decompiler) printTranslate(n *Translate) error {
	d.indent()
	d.writef("translate %s %s:", languageOrNone(n.Language), n.Identifier)
	return d.printNodes(n.Body, 1)
}

func (d *decompiler) printTranslateString(c *cursor, n *TranslateString) {
	// Consecutive entries of one language share a single header.
	if prev, ok := c.peek(-1).(*TranslateString); !ok || prev.Language != n.Language {
		d.indent()
		d.writef("translate %s strings:", languageOrNone(n.Language))
	}
	if n.Position() > 0 {
		d.advanceToLine(n.Position())
	}
	d.indentLevel++
	d.indent()
	d.writef("old \"%s\"", EscapeString(n.Old))
	d.indent()
	d.writef("new \"%s\"", EscapeString(n.New))
	d.indentLevel--
}

func (d *decompiler) printTranslateBlock(n *TranslateBlock) error {
	d.indent()
	d.writef("translate %s ", languageOrNone(n.Language))
	d.skipIndent = true
	return d.printNodes(n.Body, 0)
}

// --- Screens ---

func (d *decompiler) printScreen(n *Screen) {
	var sub ScreenUnparser
	switch n.Generation {
	case 1:
		sub = d.opts.ScreenV1
	case 2:
		sub = d.opts.ScreenV2
	}
	if sub == nil {
		d.printUnknown(fmt.Sprintf("screen generation %d", n.Generation), n.Position())
		return
	}
	line, err := sub.Render(&d.buf, n, d.indentLevel, d.lineNumber, ScreenOptions{
		ForceMultilineKwargs: d.opts.ForceMultilineKwargs,
		DecompilePython:      d.opts.DecompilePython,
		DecompileScreencode:  d.opts.DecompileScreencode,
		Comparable:           d.opts.Comparable,
		SkipIndent:           d.skipIndent,
	})
	if err != nil {
		d.printUnknown(fmt.Sprintf("screen %q: %v", n.Name, err), n.Position())
		return
	}
	d.lineNumber = line
	d.skipIndent = false
}

// printUnknown renders the placeholder for a node kind this package cannot
// decompile. The tag keeps the gap locatable; traversal continues.
func (d *decompiler) printUnknown(tag string, line int) {
	d.indent()
	d.writef("<<<unknown node %s at line %d>>>", tag, line)
}
