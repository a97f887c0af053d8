// atl_test.go
package unrpyc

import (
	"strings"
	"testing"
)

func atlLoc(line int) atlNode { return atlNode{Loc: Loc{File: "game/script.rpy", Line: line}} }

// atlOneLiner renders a single ATL clause under a show statement and strips
// the frame, leaving just the clause text.
func atlOneLiner(t *testing.T, m AtlStmt) string {
	t.Helper()
	block := Block{&Show{node: at(1),
		ImSpec: ImageSpec{NameParts: []string{"logo"}, Layer: "master"},
		ATL:    &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{m}}}}
	out := renderStable(t, block)
	const prefix = "show logo:\n    "
	if !strings.HasPrefix(out, prefix) || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected ATL frame: %q", out)
	}
	return strings.TrimSuffix(strings.TrimPrefix(out, prefix), "\n")
}

func Test_ATL_Multipurpose_Clauses(t *testing.T) {
	cases := []struct {
		m    *RawMultipurpose
		want string
	}{
		// A bare duration is an implicit pause.
		{&RawMultipurpose{atlNode: atlLoc(2), Duration: "2.0", Circles: "0"},
			"pause 2.0"},
		{&RawMultipurpose{atlNode: atlLoc(2), Warper: "linear", Duration: "1.0", Circles: "0",
			Properties: []Property{{Key: "xpos", Value: "0.5"}}},
			"linear 1.0 xpos 0.5"},
		{&RawMultipurpose{atlNode: atlLoc(2), WarpFunction: "my_warp", Duration: "1.0", Circles: "0"},
			"warp my_warp 1.0"},
		{&RawMultipurpose{atlNode: atlLoc(2), Warper: "linear", Duration: "1.0",
			Revolution: "clockwise", Circles: "2",
			Splines: []AtlSpline{{Name: "xalign", Knots: []string{"0.2", "0.8"}}}},
			"linear 1.0 clockwise circles 2 xalign knot 0.2 knot 0.8"},
		{&RawMultipurpose{atlNode: atlLoc(2), Duration: "0", Circles: "0",
			Expressions: []AtlExpression{{Expr: "truecenter", With: "ease"}}},
			"truecenter with ease"},
		// Duration "0" means no implicit pause; only the properties print.
		{&RawMultipurpose{atlNode: atlLoc(2), Duration: "0", Circles: "0",
			Properties: []Property{{Key: "xpos", Value: "0.5"}, {Key: "ypos", Value: "0.3"}}},
			"xpos 0.5 ypos 0.3"},
	}
	for _, tc := range cases {
		if got := atlOneLiner(t, tc.m); got != tc.want {
			t.Fatalf("clause mismatch\nwant: %q\ngot:  %q", tc.want, got)
		}
	}
}

func Test_ATL_Repeat_Time_Event_Function_Contains(t *testing.T) {
	cases := []struct {
		n    AtlStmt
		want string
	}{
		{&RawRepeat{atlNode: atlLoc(2)}, "repeat"},
		{&RawRepeat{atlNode: atlLoc(2), Repeats: "3"}, "repeat 3"},
		{&RawTime{atlNode: atlLoc(2), Time: "2.0"}, "time 2.0"},
		{&RawEvent{atlNode: atlLoc(2), Name: "hover"}, "event hover"},
		{&RawFunction{atlNode: atlLoc(2), Expr: "my_func"}, "function my_func"},
		{&RawContainsExpr{atlNode: atlLoc(2), Expression: "Frame(\"f.png\")"},
			"contains Frame(\"f.png\")"},
	}
	for _, tc := range cases {
		if got := atlOneLiner(t, tc.n); got != tc.want {
			t.Fatalf("clause mismatch\nwant: %q\ngot:  %q", tc.want, got)
		}
	}
}

func pauseBlock(line int, duration string) *RawBlock {
	return &RawBlock{atlNode: atlLoc(line), Statements: []AtlStmt{
		&RawMultipurpose{atlNode: atlLoc(line), Duration: duration, Circles: "0"},
	}}
}

func Test_ATL_Choice_Omits_Default_Chance(t *testing.T) {
	block := Block{&Transform{node: at(1), Name: "sway",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{
			&RawChoice{atlNode: atlLoc(2), Choices: []AtlChoice{
				{Chance: "1.0", Block: pauseBlock(3, "1.0")},
				{Chance: "0.33", Block: pauseBlock(5, "2.0")},
			}},
		}}}}
	want := "transform sway:\n" +
		"    choice:\n" +
		"        pause 1.0\n" +
		"    choice 0.33:\n" +
		"        pause 2.0\n"
	eqOut(t, renderStable(t, block), want)
}

func Test_ATL_Parallel_And_Contains_Blocks(t *testing.T) {
	block := Block{&Transform{node: at(1), Name: "both",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{
			&RawParallel{atlNode: atlLoc(2), Blocks: []*RawBlock{
				pauseBlock(3, "1.0"),
				pauseBlock(5, "2.0"),
			}},
			&RawChild{atlNode: atlLoc(6), Children: []*RawBlock{
				pauseBlock(7, "3.0"),
			}},
		}}}}
	want := "transform both:\n" +
		"    parallel:\n" +
		"        pause 1.0\n" +
		"    parallel:\n" +
		"        pause 2.0\n" +
		"    contains:\n" +
		"        pause 3.0\n"
	eqOut(t, renderStable(t, block), want)
}

func Test_ATL_Explicit_Block_Statement(t *testing.T) {
	// A RawBlock inside a statement list is an explicit "block:"; its
	// location names the first inner statement, so no advance happens
	// before the header.
	block := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{
			pauseBlock(2, "1.0"),
		}}}}
	want := "transform t:\n" +
		"    block:\n" +
		"        pause 1.0\n"
	eqOut(t, renderStable(t, block), want)
}

func Test_ATL_Empty_Block_Pass_Versus_Sentinel(t *testing.T) {
	// An empty block with a real location was written as a header with
	// nothing under it and needs a pass to stay parseable.
	block := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2)}}}
	eqOut(t, renderStable(t, block), "transform t:\n    pass\n")

	// The zero location is the compiler's placeholder for "no block at
	// all"; rendering pass there would invent source.
	block = Block{&Transform{node: at(1), Name: "t", ATL: &RawBlock{}}}
	eqOut(t, renderStable(t, block), "transform t:\n")
}

func Test_ATL_On_Handlers_Insertion_Order(t *testing.T) {
	on := &RawOn{atlNode: atlLoc(2), Handlers: []AtlHandler{
		{Event: "hide", Block: pauseBlock(5, "2.0")},
		{Event: "show", Block: pauseBlock(3, "1.0")},
	}}
	block := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{on}}}}

	got := render(t, block, Options{})
	if strings.Index(got, "on hide:") > strings.Index(got, "on show:") {
		t.Fatalf("normal output reordered handlers:\n%s", got)
	}
}

func Test_ATL_On_Handlers_Comparable_Sorted_By_Line(t *testing.T) {
	on := &RawOn{atlNode: atlLoc(2), Handlers: []AtlHandler{
		{Event: "hide", Block: pauseBlock(5, "2.0")},
		{Event: "show", Block: pauseBlock(3, "1.0")},
	}}
	block := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{on}}}}

	want := "transform t:\n" +
		"    on show:\n" +
		"        pause 1.0\n" +
		"    on hide:\n" +
		"        pause 2.0\n"
	eqOut(t, renderStable(t, block), want)

	// Two trees differing only in handler storage order render identically.
	flipped := &RawOn{atlNode: atlLoc(2), Handlers: []AtlHandler{
		on.Handlers[1], on.Handlers[0],
	}}
	other := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{flipped}}}}
	eqOut(t, renderStable(t, other), want)
}

func Test_ATL_Unknown_Clause_Placeholder(t *testing.T) {
	block := Block{&Transform{node: at(1), Name: "t",
		ATL: &RawBlock{atlNode: atlLoc(2), Statements: []AtlStmt{
			&AtlUnknown{atlNode: atlLoc(3), Tag: "wobble"},
		}}}}
	eqOut(t, renderStable(t, block),
		"transform t:\n    <<<unknown node wobble at line 3>>>\n")
}

func Test_Show_With_ATL_And_Paired_Transition(t *testing.T) {
	// The folded with clause lands before the colon that opens the block.
	block := Block{
		&With{node: at(3), Expr: "None", Paired: "dissolve"},
		&Show{node: at(3),
			ImSpec: ImageSpec{NameParts: []string{"logo"}, Layer: "master"},
			ATL:    pauseBlock(4, "1.0")},
		&With{node: at(3), Expr: "dissolve"},
	}
	eqOut(t, renderStable(t, block), "show logo with dissolve:\n    pause 1.0\n")
}
