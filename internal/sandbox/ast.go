package sandbox

// Statement and expression nodes for the analysis dialect. The language is
// deliberately small: assignments, imports, expression statements and the
// three control-flow forms the models actually emit.

type stmt interface {
	stmtNode()
	StmtLine() int
}

type expr interface {
	exprNode()
	ExprLine() int
}

type program struct {
	Body []stmt
}

// --- statements ---

type assignStmt struct {
	Line   int
	Target expr // nameExpr or indexExpr
	Value  expr
}

type importStmt struct {
	Line   int
	Module string
	Alias  string // empty when not aliased
}

type fromImportStmt struct {
	Line   int
	Module string
	Names  []importedName
}

type importedName struct {
	Name  string
	Alias string
}

type exprStmt struct {
	Line int
	X    expr
}

type ifStmt struct {
	Line   int
	Cond   expr
	Body   []stmt
	Orelse []stmt // elif chains nest here as a single ifStmt
}

type whileStmt struct {
	Line int
	Cond expr
	Body []stmt
}

type forStmt struct {
	Line int
	Var  string
	Iter expr
	Body []stmt
}

type passStmt struct{ Line int }
type breakStmt struct{ Line int }
type continueStmt struct{ Line int }

func (s *assignStmt) stmtNode()     {}
func (s *importStmt) stmtNode()     {}
func (s *fromImportStmt) stmtNode() {}
func (s *exprStmt) stmtNode()       {}
func (s *ifStmt) stmtNode()         {}
func (s *whileStmt) stmtNode()      {}
func (s *forStmt) stmtNode()        {}
func (s *passStmt) stmtNode()       {}
func (s *breakStmt) stmtNode()      {}
func (s *continueStmt) stmtNode()   {}

func (s *assignStmt) StmtLine() int     { return s.Line }
func (s *importStmt) StmtLine() int     { return s.Line }
func (s *fromImportStmt) StmtLine() int { return s.Line }
func (s *exprStmt) StmtLine() int       { return s.Line }
func (s *ifStmt) StmtLine() int         { return s.Line }
func (s *whileStmt) StmtLine() int      { return s.Line }
func (s *forStmt) StmtLine() int        { return s.Line }
func (s *passStmt) StmtLine() int       { return s.Line }
func (s *breakStmt) StmtLine() int      { return s.Line }
func (s *continueStmt) StmtLine() int   { return s.Line }

// --- expressions ---

type intLit struct {
	Line  int
	Value int64
}

type floatLit struct {
	Line  int
	Value float64
}

type stringLit struct {
	Line  int
	Value string
}

type boolLit struct {
	Line  int
	Value bool
}

type noneLit struct{ Line int }

type nameExpr struct {
	Line int
	Name string
}

type listLit struct {
	Line  int
	Elems []expr
}

type dictLit struct {
	Line   int
	Keys   []expr
	Values []expr
}

type unaryExpr struct {
	Line int
	Op   string // "-", "not"
	X    expr
}

type binaryExpr struct {
	Line  int
	Op    string // arithmetic and comparison operators
	Left  expr
	Right expr
}

type boolOpExpr struct {
	Line  int
	Op    string // "and", "or" (short-circuit)
	Left  expr
	Right expr
}

type callExpr struct {
	Line   int
	Fn     expr
	Args   []expr
	Kwargs []kwarg
}

type kwarg struct {
	Name  string
	Value expr
}

type attrExpr struct {
	Line int
	X    expr
	Name string
}

type indexExpr struct {
	Line  int
	X     expr
	Index expr
}

func (e *intLit) exprNode()     {}
func (e *floatLit) exprNode()   {}
func (e *stringLit) exprNode()  {}
func (e *boolLit) exprNode()    {}
func (e *noneLit) exprNode()    {}
func (e *nameExpr) exprNode()   {}
func (e *listLit) exprNode()    {}
func (e *dictLit) exprNode()    {}
func (e *unaryExpr) exprNode()  {}
func (e *binaryExpr) exprNode() {}
func (e *boolOpExpr) exprNode() {}
func (e *callExpr) exprNode()   {}
func (e *attrExpr) exprNode()   {}
func (e *indexExpr) exprNode()  {}

func (e *intLit) ExprLine() int     { return e.Line }
func (e *floatLit) ExprLine() int   { return e.Line }
func (e *stringLit) ExprLine() int  { return e.Line }
func (e *boolLit) ExprLine() int    { return e.Line }
func (e *noneLit) ExprLine() int    { return e.Line }
func (e *nameExpr) ExprLine() int   { return e.Line }
func (e *listLit) ExprLine() int    { return e.Line }
func (e *dictLit) ExprLine() int    { return e.Line }
func (e *unaryExpr) ExprLine() int  { return e.Line }
func (e *binaryExpr) ExprLine() int { return e.Line }
func (e *boolOpExpr) ExprLine() int { return e.Line }
func (e *callExpr) ExprLine() int   { return e.Line }
func (e *attrExpr) ExprLine() int   { return e.Line }
func (e *indexExpr) ExprLine() int  { return e.Line }
