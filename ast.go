// ast.go — the statement and ATL node shapes the decompiler consumes.
//
// The deserialization layer (a separate tool that reads the .rpyc binary
// format) produces these structures and never mutates them afterwards.
// Embedded Python and all expressions are carried as opaque source strings;
// the decompiler reproduces them verbatim and never re-parses them.

package unrpyc

// Stmt is one parsed statement or directive. The set of implementations in
// this package is closed; anything a future Ren'Py version adds arrives as
// an *Unknown so rendering can continue around it.
type Stmt interface {
	stmt()
	// Position returns the recorded 1-based source line, or 0 for nodes the
	// compiler injected that have no line of their own.
	Position() int
}

// Block is an ordered list of statements at one nesting level.
type Block []Stmt

// node carries the recorded source line and is embedded by every statement.
type node struct {
	Line int
}

func (node) stmt()           {}
func (n node) Position() int { return n.Line }

// ImageSpec is the name-or-expression clause group shared by the display
// statements (show, scene, hide).
type ImageSpec struct {
	NameParts  []string
	Expression string   // non-empty selects the "expression ..." form
	Alias      string   // "as ..."
	AtExprs    []string // "at a, b"
	Layer      string   // omitted from output when "master"
	ZOrder     string
	Behind     []string
}

// ParamInfo describes a parameter list on label or transform.
type ParamInfo struct {
	Params   []Param
	ExtraPos string // *args
	ExtraKw  string // **kwargs
}

// Param is a single declared parameter. NameOnly parameters sort after the
// positional ones and after the bare "*" separator when no ExtraPos exists.
type Param struct {
	Name     string
	Default  string // empty means no default
	NameOnly bool
}

// ArgInfo describes an argument list on call.
type ArgInfo struct {
	Args     []Arg
	ExtraPos string // *expr
	ExtraKw  string // **expr
}

// Arg is one call argument, keyword form when Name is non-empty.
type Arg struct {
	Name  string
	Value string
}

// Property is an ordered key/value pair. Style properties and ATL property
// assignments are kept as slices, not maps: output order is part of the
// reconstructed source.
type Property struct {
	Key   string
	Value string
}

// --- Flow control ---

type Label struct {
	node
	Name       string
	Parameters *ParamInfo
	Body       Block
}

type Jump struct {
	node
	Target     string
	Expression bool
}

type Call struct {
	node
	Label      string
	Expression bool
	Arguments  *ArgInfo
}

type Return struct {
	node
	Expression string // empty means bare return
}

type Pass struct {
	node
}

type If struct {
	node
	Entries []IfEntry
}

type IfEntry struct {
	Condition string
	Body      Block
}

type While struct {
	node
	Condition string
	Body      Block
}

// --- Dialogue and menus ---

type Say struct {
	node
	Who        string
	What       string
	Interact   bool
	WithExpr   string
	Attributes []string // nil when the statement carries none
}

type Menu struct {
	node
	Items []MenuItem
	With  string
	Set   string
}

// MenuItem with a nil Body is a caption line, not a choice.
type MenuItem struct {
	Label     string
	Condition string
	Body      Block
}

// --- Display directives ---

type Show struct {
	node
	ImSpec ImageSpec
	ATL    *RawBlock
}

type Scene struct {
	node
	ImSpec *ImageSpec // nil for a bare "scene [onlayer ...]"
	Layer  string
	ATL    *RawBlock
}

type Hide struct {
	node
	ImSpec ImageSpec
}

type ShowLayer struct {
	node
	Layer  string
	AtList []string
	ATL    *RawBlock
}

// With is a transition statement. Paired is set on the leading half of the
// postfix sugar ("show x with d" compiles to With(paired=d), Show, With(d));
// the decompiler folds the pair back into the display statement's line.
type With struct {
	node
	Expr   string
	Paired string
}

// --- Declarations ---

type Image struct {
	node
	Name []string
	Code string // non-empty selects the "image x = ..." form
	ATL  *RawBlock
}

type Transform struct {
	node
	Name       string
	Parameters *ParamInfo
	ATL        *RawBlock
}

type Define struct {
	node
	Store   string // "" and "store" both mean the default store
	VarName string
	Code    string
}

type Style struct {
	node
	Name       string
	Parent     string
	Clear      bool
	Take       string
	Delattr    []string
	Variant    string
	Properties []Property
}

type Init struct {
	node
	Priority int
	Body     Block
}

// --- Embedded code ---

type Python struct {
	node
	Code string
	Hide bool
}

type EarlyPython struct {
	node
	Code string
	Hide bool
}

// UserStatement is a creator-defined statement kept as its raw source line.
type UserStatement struct {
	node
	Text string
}

// --- Translations ---

type Translate struct {
	node
	Identifier string
	Language   string // "" renders as None
	Body       Block
}

// EndTranslate is compiler-injected and renders nothing.
type EndTranslate struct {
	node
}

type TranslateString struct {
	node
	Language string
	Old      string
	New      string
}

type TranslateBlock struct {
	node
	Language string
	Body     Block
}

// --- Screens ---

// Screen wraps one screen-language declaration. The payload shape depends
// on Generation and is only understood by the matching ScreenUnparser.
type Screen struct {
	node
	Generation int
	Name       string
	Payload    any
}

// Unknown preserves a statement kind this package does not recognize.
type Unknown struct {
	node
	Tag     string
	Payload any
}

// --- ATL (the motion/transform mini-language) ---

// Loc is an ATL node location. The zero Loc is the sentinel the compiler
// leaves on a block header that had a colon but no statements.
type Loc struct {
	File string
	Line int
}

// IsZero reports whether l is the synthetic empty-placeholder sentinel.
func (l Loc) IsZero() bool { return l.File == "" && l.Line == 0 }

// AtlStmt is one statement of the ATL mini-language. Like Stmt, the set of
// implementations is closed.
type AtlStmt interface {
	atlStmt()
	Location() Loc
}

type atlNode struct {
	Loc Loc
}

func (atlNode) atlStmt()        {}
func (n atlNode) Location() Loc { return n.Loc }

// RawBlock is a nested ATL block. Its Loc points at the first statement
// inside the block, not at the header line. It doubles as an explicit
// "block:" statement when it appears inside another block's statement list.
type RawBlock struct {
	atlNode
	Statements []AtlStmt
}

// RawMultipurpose is the general one-line ATL clause: an optional warper or
// pause, then revolution, circles, splines, property assignments and
// expressions, all space-joined.
type RawMultipurpose struct {
	atlNode
	Warper       string
	Duration     string
	WarpFunction string
	Revolution   string
	Circles      string // "0" means omitted
	Splines      []AtlSpline
	Properties   []Property
	Expressions  []AtlExpression
}

type AtlSpline struct {
	Name  string
	Knots []string
}

// AtlExpression is a displayable expression with an optional per-keyframe
// transition.
type AtlExpression struct {
	Expr string
	With string
}

type RawChild struct {
	atlNode
	Children []*RawBlock
}

type RawChoice struct {
	atlNode
	Choices []AtlChoice
}

// AtlChoice is one weighted branch; the weight is omitted from output when
// it is the default "1.0".
type AtlChoice struct {
	Chance string
	Block  *RawBlock
}

type RawContainsExpr struct {
	atlNode
	Expression string
}

type RawEvent struct {
	atlNode
	Name string
}

type RawFunction struct {
	atlNode
	Expr string
}

// RawOn holds the event handlers in the order the deserializer found them.
// Insertion order is authoritative for normal output; comparable output
// sorts by each handler block's recorded line instead.
type RawOn struct {
	atlNode
	Handlers []AtlHandler
}

type AtlHandler struct {
	Event string
	Block *RawBlock
}

type RawParallel struct {
	atlNode
	Blocks []*RawBlock
}

type RawRepeat struct {
	atlNode
	Repeats string // empty means bare repeat
}

type RawTime struct {
	atlNode
	Time string
}

// AtlUnknown preserves an ATL statement kind this package does not
// recognize, mirroring Unknown at the statement level.
type AtlUnknown struct {
	atlNode
	Tag     string
	Payload any
}
