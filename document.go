// document.go — interchange decoding for deserialized script units.
//
// The binary .rpyc reader is a separate tool. It emits one JSON document
// per translation unit in the shape decoded here: a flat tagged-union
// encoding of the ast.go structures, one object per statement with a
// "kind" discriminator. Statements whose kind this package does not know
// are preserved as *Unknown with the raw object as payload, so rendering
// degrades to a placeholder instead of failing the unit.

package unrpyc

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is one decompilation unit as produced by the deserializer.
type Document struct {
	Archive string // originating file inside the archive, informational
	Block   Block
}

// DecodeDocument reads a single interchange document from r.
func DecodeDocument(r io.Reader) (*Document, error) {
	var raw struct {
		Archive string            `json:"archive"`
		Block   []json.RawMessage `json:"block"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	block, err := decodeBlock(raw.Block)
	if err != nil {
		return nil, err
	}
	return &Document{Archive: raw.Archive, Block: block}, nil
}

func decodeBlock(raws []json.RawMessage) (Block, error) {
	if raws == nil {
		return nil, nil
	}
	block := make(Block, 0, len(raws))
	for i, raw := range raws {
		n, err := decodeStmt(raw)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		block = append(block, n)
	}
	return block, nil
}

// wireStmt is the superset envelope of every statement kind. Which fields
// are meaningful depends on Kind.
type wireStmt struct {
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`

	Name       string            `json:"name,omitempty"`
	Names      []string          `json:"names,omitempty"`
	Target     string            `json:"target,omitempty"`
	Label      string            `json:"label,omitempty"`
	Expression bool              `json:"expression,omitempty"`
	Value      string            `json:"value,omitempty"`
	Expr       string            `json:"expr,omitempty"`
	Condition  string            `json:"condition,omitempty"`
	Code       string            `json:"code,omitempty"`
	Hide       bool              `json:"hide,omitempty"`
	Store      string            `json:"store,omitempty"`
	VarName    string            `json:"varname,omitempty"`
	Who        string            `json:"who,omitempty"`
	What       string            `json:"what,omitempty"`
	Interact   bool              `json:"interact,omitempty"`
	With       string            `json:"with,omitempty"`
	Set        string            `json:"set,omitempty"`
	Paired     string            `json:"paired,omitempty"`
	Attributes []string          `json:"attributes,omitempty"`
	Layer      string            `json:"layer,omitempty"`
	AtList     []string          `json:"at_list,omitempty"`
	Text       string            `json:"text,omitempty"`
	Language   string            `json:"language,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	Old        string            `json:"old,omitempty"`
	New        string            `json:"new,omitempty"`
	Priority   int               `json:"priority,omitempty"`
	Generation int               `json:"generation,omitempty"`
	Parent     string            `json:"parent,omitempty"`
	Clear      bool              `json:"clear,omitempty"`
	Take       string            `json:"take,omitempty"`
	Delattr    []string          `json:"del,omitempty"`
	Variant    string            `json:"variant,omitempty"`
	Properties []wirePair        `json:"properties,omitempty"`
	ImSpec     *wireImSpec       `json:"imspec,omitempty"`
	ATL        *wireAtlBlock     `json:"atl,omitempty"`
	Params     *wireParams       `json:"params,omitempty"`
	Args       *wireArgs         `json:"args,omitempty"`
	Entries    []wireIfEntry     `json:"entries,omitempty"`
	Items      []wireMenuItem    `json:"items,omitempty"`
	Body       []json.RawMessage `json:"body,omitempty"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
}

type wirePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireImSpec struct {
	Name       []string `json:"name,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Alias      string   `json:"as,omitempty"`
	AtExprs    []string `json:"at,omitempty"`
	Layer      string   `json:"layer,omitempty"`
	ZOrder     string   `json:"zorder,omitempty"`
	Behind     []string `json:"behind,omitempty"`
}

type wireParams struct {
	Params   []wireParam `json:"params,omitempty"`
	ExtraPos string      `json:"extrapos,omitempty"`
	ExtraKw  string      `json:"extrakw,omitempty"`
}

type wireParam struct {
	Name     string `json:"name"`
	Default  string `json:"default,omitempty"`
	NameOnly bool   `json:"name_only,omitempty"`
}

type wireArgs struct {
	Args     []wireArg `json:"args,omitempty"`
	ExtraPos string    `json:"extrapos,omitempty"`
	ExtraKw  string    `json:"extrakw,omitempty"`
}

type wireArg struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

type wireIfEntry struct {
	Condition string            `json:"condition"`
	Body      []json.RawMessage `json:"body"`
}

// wireMenuItem without a body is a caption line.
type wireMenuItem struct {
	Label     string            `json:"label"`
	Condition string            `json:"condition,omitempty"`
	Body      []json.RawMessage `json:"body,omitempty"`
}

func decodeStmt(raw json.RawMessage) (Stmt, error) {
	var w wireStmt
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	at := node{Line: w.Line}
	switch w.Kind {
	case "label":
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &Label{node: at, Name: w.Name, Parameters: w.Params.toParams(), Body: body}, nil
	case "jump":
		return &Jump{node: at, Target: w.Target, Expression: w.Expression}, nil
	case "call":
		return &Call{node: at, Label: w.Label, Expression: w.Expression, Arguments: w.Args.toArgs()}, nil
	case "return":
		return &Return{node: at, Expression: w.Value}, nil
	case "pass":
		return &Pass{node: at}, nil
	case "if":
		entries := make([]IfEntry, 0, len(w.Entries))
		for _, e := range w.Entries {
			body, err := decodeBlock(e.Body)
			if err != nil {
				return nil, err
			}
			entries = append(entries, IfEntry{Condition: e.Condition, Body: body})
		}
		return &If{node: at, Entries: entries}, nil
	case "while":
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &While{node: at, Condition: w.Condition, Body: body}, nil
	case "menu":
		items := make([]MenuItem, 0, len(w.Items))
		for _, it := range w.Items {
			item := MenuItem{Label: it.Label, Condition: orDefault(it.Condition, "True")}
			if it.Body != nil {
				body, err := decodeBlock(it.Body)
				if err != nil {
					return nil, err
				}
				if body == nil {
					body = Block{}
				}
				item.Body = body
			}
			items = append(items, item)
		}
		return &Menu{node: at, Items: items, With: w.With, Set: w.Set}, nil
	case "say":
		return &Say{node: at, Who: w.Who, What: w.What, Interact: w.Interact,
			WithExpr: w.With, Attributes: w.Attributes}, nil
	case "with":
		return &With{node: at, Expr: w.Expr, Paired: w.Paired}, nil
	case "show":
		return &Show{node: at, ImSpec: w.ImSpec.toSpec(), ATL: w.ATL.toBlock()}, nil
	case "scene":
		s := &Scene{node: at, Layer: orDefault(w.Layer, "master"), ATL: w.ATL.toBlock()}
		if w.ImSpec != nil {
			spec := w.ImSpec.toSpec()
			s.ImSpec = &spec
		}
		return s, nil
	case "hide":
		return &Hide{node: at, ImSpec: w.ImSpec.toSpec()}, nil
	case "showlayer":
		return &ShowLayer{node: at, Layer: w.Layer, AtList: w.AtList, ATL: w.ATL.toBlock()}, nil
	case "image":
		return &Image{node: at, Name: w.Names, Code: w.Code, ATL: w.ATL.toBlock()}, nil
	case "transform":
		return &Transform{node: at, Name: w.Name, Parameters: w.Params.toParams(), ATL: w.ATL.toBlock()}, nil
	case "define":
		return &Define{node: at, Store: w.Store, VarName: w.VarName, Code: w.Code}, nil
	case "style":
		return &Style{node: at, Name: w.Name, Parent: w.Parent, Clear: w.Clear,
			Take: w.Take, Delattr: w.Delattr, Variant: w.Variant,
			Properties: toProperties(w.Properties)}, nil
	case "init":
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &Init{node: at, Priority: w.Priority, Body: body}, nil
	case "python":
		return &Python{node: at, Code: w.Code, Hide: w.Hide}, nil
	case "earlypython":
		return &EarlyPython{node: at, Code: w.Code, Hide: w.Hide}, nil
	case "userstatement":
		return &UserStatement{node: at, Text: w.Text}, nil
	case "translate":
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &Translate{node: at, Identifier: w.Identifier, Language: w.Language, Body: body}, nil
	case "endtranslate":
		return &EndTranslate{node: at}, nil
	case "translatestring":
		return &TranslateString{node: at, Language: w.Language, Old: w.Old, New: w.New}, nil
	case "translateblock":
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &TranslateBlock{node: at, Language: w.Language, Body: body}, nil
	case "screen":
		return &Screen{node: at, Generation: w.Generation, Name: w.Name, Payload: w.Payload}, nil
	default:
		return &Unknown{node: at, Tag: w.Kind, Payload: raw}, nil
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func toProperties(pairs []wirePair) []Property {
	if pairs == nil {
		return nil
	}
	props := make([]Property, len(pairs))
	for i, p := range pairs {
		props[i] = Property{Key: p.Key, Value: p.Value}
	}
	return props
}

func (w *wireImSpec) toSpec() ImageSpec {
	if w == nil {
		return ImageSpec{Layer: "master"}
	}
	return ImageSpec{
		NameParts:  w.Name,
		Expression: w.Expression,
		Alias:      w.Alias,
		AtExprs:    w.AtExprs,
		Layer:      orDefault(w.Layer, "master"),
		ZOrder:     w.ZOrder,
		Behind:     w.Behind,
	}
}

func (w *wireParams) toParams() *ParamInfo {
	if w == nil {
		return nil
	}
	info := &ParamInfo{ExtraPos: w.ExtraPos, ExtraKw: w.ExtraKw}
	for _, p := range w.Params {
		info.Params = append(info.Params, Param{Name: p.Name, Default: p.Default, NameOnly: p.NameOnly})
	}
	return info
}

func (w *wireArgs) toArgs() *ArgInfo {
	if w == nil {
		return nil
	}
	info := &ArgInfo{ExtraPos: w.ExtraPos, ExtraKw: w.ExtraKw}
	for _, a := range w.Args {
		info.Args = append(info.Args, Arg{Name: a.Name, Value: a.Value})
	}
	return info
}

// --- ATL wire shapes ---

type wireAtlBlock struct {
	File       string        `json:"file,omitempty"`
	Line       int           `json:"line,omitempty"`
	Statements []wireAtlStmt `json:"statements,omitempty"`
}

type wireAtlStmt struct {
	Kind string `json:"kind"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`

	Warper       string         `json:"warper,omitempty"`
	Duration     string         `json:"duration,omitempty"`
	WarpFunction string         `json:"warp_function,omitempty"`
	Revolution   string         `json:"revolution,omitempty"`
	Circles      string         `json:"circles,omitempty"`
	Splines      []wireSpline   `json:"splines,omitempty"`
	Properties   []wirePair     `json:"properties,omitempty"`
	Expressions  []wireAtlExpr  `json:"expressions,omitempty"`
	Statements   []wireAtlStmt  `json:"statements,omitempty"`
	Children     []wireAtlBlock `json:"children,omitempty"`
	Choices      []wireChoice   `json:"choices,omitempty"`
	Handlers     []wireHandler  `json:"handlers,omitempty"`
	Blocks       []wireAtlBlock `json:"blocks,omitempty"`
	Expression   string         `json:"expression,omitempty"`
	Name         string         `json:"name,omitempty"`
	Expr         string         `json:"expr,omitempty"`
	Repeats      string         `json:"repeats,omitempty"`
	Time         string         `json:"time,omitempty"`
}

type wireSpline struct {
	Name  string   `json:"name"`
	Knots []string `json:"knots,omitempty"`
}

type wireAtlExpr struct {
	Expr string `json:"expr"`
	With string `json:"with,omitempty"`
}

type wireChoice struct {
	Chance string       `json:"chance,omitempty"`
	Block  wireAtlBlock `json:"block"`
}

type wireHandler struct {
	Event string       `json:"event"`
	Block wireAtlBlock `json:"block"`
}

func (w *wireAtlBlock) toBlock() *RawBlock {
	if w == nil {
		return nil
	}
	b := &RawBlock{atlNode: atlNode{Loc: Loc{File: w.File, Line: w.Line}}}
	for _, s := range w.Statements {
		b.Statements = append(b.Statements, s.toStmt())
	}
	return b
}

func blocksOf(ws []wireAtlBlock) []*RawBlock {
	blocks := make([]*RawBlock, len(ws))
	for i := range ws {
		blocks[i] = ws[i].toBlock()
	}
	return blocks
}

func (w *wireAtlStmt) toStmt() AtlStmt {
	at := atlNode{Loc: Loc{File: w.File, Line: w.Line}}
	switch w.Kind {
	case "multipurpose":
		n := &RawMultipurpose{
			atlNode:      at,
			Warper:       w.Warper,
			Duration:     orDefault(w.Duration, "0"),
			WarpFunction: w.WarpFunction,
			Revolution:   w.Revolution,
			Circles:      orDefault(w.Circles, "0"),
			Properties:   toProperties(w.Properties),
		}
		for _, s := range w.Splines {
			n.Splines = append(n.Splines, AtlSpline{Name: s.Name, Knots: s.Knots})
		}
		for _, e := range w.Expressions {
			n.Expressions = append(n.Expressions, AtlExpression{Expr: e.Expr, With: e.With})
		}
		return n
	case "block":
		b := &RawBlock{atlNode: at}
		for _, s := range w.Statements {
			b.Statements = append(b.Statements, s.toStmt())
		}
		return b
	case "child":
		return &RawChild{atlNode: at, Children: blocksOf(w.Children)}
	case "choice":
		n := &RawChoice{atlNode: at}
		for _, c := range w.Choices {
			n.Choices = append(n.Choices, AtlChoice{Chance: orDefault(c.Chance, "1.0"), Block: c.Block.toBlock()})
		}
		return n
	case "containsexpr":
		return &RawContainsExpr{atlNode: at, Expression: w.Expression}
	case "event":
		return &RawEvent{atlNode: at, Name: w.Name}
	case "function":
		return &RawFunction{atlNode: at, Expr: w.Expr}
	case "on":
		n := &RawOn{atlNode: at}
		for _, h := range w.Handlers {
			n.Handlers = append(n.Handlers, AtlHandler{Event: h.Event, Block: h.Block.toBlock()})
		}
		return n
	case "parallel":
		return &RawParallel{atlNode: at, Blocks: blocksOf(w.Blocks)}
	case "repeat":
		return &RawRepeat{atlNode: at, Repeats: w.Repeats}
	case "time":
		return &RawTime{atlNode: at, Time: w.Time}
	default:
		return &AtlUnknown{atlNode: at, Tag: w.Kind}
	}
}
