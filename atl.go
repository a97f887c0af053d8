// atl.go — renderer for the ATL motion/transform mini-language.

package unrpyc

import (
	"fmt"
	"sort"
)

// printATLSuffix closes the current statement line with a colon and renders
// the attached ATL block, if any.
func (d *decompiler) printATLSuffix(b *RawBlock) error {
	if b == nil {
		return nil
	}
	d.write(":")
	return d.printATLBlock(b)
}

// printATLBlock renders the body of an ATL block one level deeper. An empty
// block prints pass, except for the sentinel location the compiler leaves
// on a header that had a colon but no statements, which prints nothing.
func (d *decompiler) printATLBlock(b *RawBlock) error {
	if b.Loc.Line > 0 {
		d.advanceToLine(b.Loc.Line)
	}
	d.indentLevel++
	defer func() { d.indentLevel-- }()
	if len(b.Statements) > 0 {
		return d.printATLNodes(b.Statements)
	}
	if !b.Loc.IsZero() {
		d.indent()
		d.write("pass")
	}
	return nil
}

func (d *decompiler) printATLNodes(nodes []AtlStmt) error {
	for _, n := range nodes {
		// A RawBlock's Loc names its first inner statement; advancing here
		// would misplace the "block:" header.
		if _, ok := n.(*RawBlock); !ok {
			if line := n.Location().Line; line > 0 {
				d.advanceToLine(line)
			}
		}
		if err := d.printATLNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (d *decompiler) printATLNode(n AtlStmt) error {
	switch n := n.(type) {
	case *RawMultipurpose:
		d.printATLMulti(n)
	case *RawBlock:
		d.indent()
		d.write("block:")
		return d.printATLBlock(n)
	case *RawChild:
		for _, child := range n.Children {
			d.indent()
			d.write("contains:")
			if err := d.printATLBlock(child); err != nil {
				return err
			}
		}
	case *RawChoice:
		for _, choice := range n.Choices {
			d.indent()
			d.write("choice")
			if choice.Chance != "1.0" {
				d.writef(" %s", choice.Chance)
			}
			d.write(":")
			if err := d.printATLBlock(choice.Block); err != nil {
				return err
			}
		}
	case *RawContainsExpr:
		d.indent()
		d.writef("contains %s", n.Expression)
	case *RawEvent:
		d.indent()
		d.writef("event %s", n.Name)
	case *RawFunction:
		d.indent()
		d.writef("function %s", n.Expr)
	case *RawOn:
		return d.printATLOn(n)
	case *RawParallel:
		for _, block := range n.Blocks {
			d.indent()
			d.write("parallel:")
			if err := d.printATLBlock(block); err != nil {
				return err
			}
		}
	case *RawRepeat:
		d.indent()
		d.write("repeat")
		if n.Repeats != "" {
			d.writef(" %s", n.Repeats)
		}
	case *RawTime:
		d.indent()
		d.writef("time %s", n.Time)
	case *AtlUnknown:
		d.printUnknown(n.Tag, n.Location().Line)
	default:
		d.printUnknown(fmt.Sprintf("%T", n), n.Location().Line)
	}
	return nil
}

// printATLOn renders the event handlers. Comparable mode sorts them by each
// handler block's recorded line so output does not depend on the order the
// deserializer stored them in; normal output keeps insertion order.
func (d *decompiler) printATLOn(n *RawOn) error {
	handlers := n.Handlers
	if d.comparable {
		handlers = append([]AtlHandler(nil), handlers...)
		sort.SliceStable(handlers, func(i, j int) bool {
			return handlers[i].Block.Loc.Line < handlers[j].Block.Loc.Line
		})
	}
	for _, h := range handlers {
		d.indent()
		d.writef("on %s:", h.Event)
		if err := d.printATLBlock(h.Block); err != nil {
			return err
		}
	}
	return nil
}

// printATLMulti renders the multi-purpose keyframe clause: warp function,
// named warper or implicit pause, then revolution, circles, spline knots,
// property assignments and expressions, space-joined on one line.
func (d *decompiler) printATLMulti(n *RawMultipurpose) {
	d.indent()
	var words wordJoiner
	switch {
	case n.WarpFunction != "":
		words.add("warp", n.WarpFunction, n.Duration)
	case n.Warper != "":
		words.add(n.Warper, n.Duration)
	case n.Duration != "0":
		words.add("pause", n.Duration)
	}
	words.add(n.Revolution)
	if n.Circles != "0" && n.Circles != "" {
		words.add("circles", n.Circles)
	}
	for _, spline := range n.Splines {
		words.add(spline.Name)
		for _, knot := range spline.Knots {
			words.add("knot", knot)
		}
	}
	for _, p := range n.Properties {
		words.add(p.Key, p.Value)
	}
	for _, e := range n.Expressions {
		words.add(e.Expr)
		if e.With != "" {
			words.add("with", e.With)
		}
	}
	d.write(words.join())
}
