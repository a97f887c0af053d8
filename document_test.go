// document_test.go
package unrpyc

import (
	"strings"
	"testing"
)

func decode(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := DecodeDocument(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeDocument error: %v\nsource:\n%s", err, src)
	}
	return doc
}

func Test_Document_Decode_And_Render(t *testing.T) {
	doc := decode(t, `{
		"archive": "game/script.rpy",
		"block": [
			{"kind": "label", "line": 1, "name": "start", "body": [
				{"kind": "say", "line": 2, "who": "e", "what": "Hello, [name]!", "interact": true},
				{"kind": "with", "line": 3, "expr": "None", "paired": "dissolve"},
				{"kind": "show", "line": 3, "imspec": {"name": ["eileen", "happy"], "at": ["left"]}},
				{"kind": "with", "line": 3, "expr": "dissolve"},
				{"kind": "return", "line": 5}
			]}
		]
	}`)
	if doc.Archive != "game/script.rpy" {
		t.Fatalf("archive: got %q", doc.Archive)
	}
	want := "label start:\n" +
		"    e \"Hello, [[name]!\"\n" +
		"    show eileen happy at left with dissolve\n" +
		"    return\n"
	eqOut(t, renderStable(t, doc.Block), want)
}

func Test_Document_Menu_Defaults(t *testing.T) {
	// A missing condition means True and renders no if clause; an item
	// without a body is a caption line.
	doc := decode(t, `{"block": [
		{"kind": "menu", "line": 1, "items": [
			{"label": "Just thinking."},
			{"label": "Go", "body": [{"kind": "jump", "line": 3, "target": "go"}]},
			{"label": "Stay", "condition": "tired", "body": [{"kind": "jump", "line": 5, "target": "stay"}]}
		]}
	]}`)
	want := "menu:\n" +
		"    \"Just thinking.\"\n" +
		"    \"Go\":\n" +
		"        jump go\n" +
		"    \"Stay\" if tired:\n" +
		"        jump stay\n"
	eqOut(t, renderStable(t, doc.Block), want)
}

func Test_Document_Imspec_Defaults(t *testing.T) {
	// Layer defaults to master and stays out of the output.
	doc := decode(t, `{"block": [
		{"kind": "show", "line": 1, "imspec": {"name": ["bg"], "as": "b", "zorder": "1"}},
		{"kind": "hide", "line": 2, "imspec": {"name": ["bg"], "layer": "screens"}}
	]}`)
	want := "show bg as b zorder 1\n" +
		"hide bg onlayer screens\n"
	eqOut(t, renderStable(t, doc.Block), want)
}

func Test_Document_ATL_Decode(t *testing.T) {
	doc := decode(t, `{"block": [
		{"kind": "transform", "line": 1, "name": "fade_in",
		 "atl": {"file": "game/script.rpy", "line": 2, "statements": [
			{"kind": "multipurpose", "file": "game/script.rpy", "line": 2,
			 "warper": "linear", "duration": "1.0",
			 "properties": [{"key": "alpha", "value": "1.0"}]},
			{"kind": "repeat", "file": "game/script.rpy", "line": 3}
		 ]}}
	]}`)
	want := "transform fade_in:\n" +
		"    linear 1.0 alpha 1.0\n" +
		"    repeat\n"
	eqOut(t, renderStable(t, doc.Block), want)
}

func Test_Document_Init_And_Params(t *testing.T) {
	doc := decode(t, `{"block": [
		{"kind": "init", "line": 1, "priority": 5, "body": [
			{"kind": "define", "line": 1, "varname": "x", "code": "1"}
		]},
		{"kind": "label", "line": 3, "name": "greet",
		 "params": {"params": [{"name": "who"}, {"name": "mood", "default": "'calm'"}]},
		 "body": [{"kind": "return", "line": 4}]}
	]}`)
	want := "init 5 define x = 1\n" +
		"label greet(who, mood='calm'):\n" +
		"    return\n"
	eqOut(t, renderStable(t, doc.Block), want)
}

func Test_Document_Unknown_Kinds_Degrade(t *testing.T) {
	doc := decode(t, `{"block": [
		{"kind": "frobnicate", "line": 4},
		{"kind": "transform", "line": 5, "name": "t",
		 "atl": {"file": "f", "line": 6, "statements": [
			{"kind": "wobble", "file": "f", "line": 6}
		 ]}}
	]}`)
	want := "<<<unknown node frobnicate at line 4>>>\n" +
		"transform t:\n" +
		"    <<<unknown node wobble at line 6>>>\n"
	eqOut(t, renderStable(t, doc.Block), want)

	u, ok := doc.Block[0].(*Unknown)
	if !ok {
		t.Fatalf("want *Unknown, got %T", doc.Block[0])
	}
	if u.Tag != "frobnicate" || u.Payload == nil {
		t.Fatalf("unknown not preserved: %+v", u)
	}
}

func Test_Document_Decode_Errors(t *testing.T) {
	if _, err := DecodeDocument(strings.NewReader("{")); err == nil {
		t.Fatalf("want error for truncated input")
	}
	if _, err := DecodeDocument(strings.NewReader(`{"block": ["not an object"]}`)); err == nil {
		t.Fatalf("want error for malformed statement")
	}
}
