package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Relation is the parse tree of one relation in the ISL concrete
// syntax:
//
//	[n, m] -> { [i, j] -> [k] : constraints; [i, j] -> [k] : ... }
//
// Sets omit the arrow between the tuples.
type Relation struct {
	Pos lexer.Position

	Params    *ParamTuple `(@@ "->")?`
	Disjuncts []*Disjunct `"{" (@@ (";" @@)*)? "}"`
}

// ParamTuple declares the symbolic parameters.
type ParamTuple struct {
	Names []string `"[" (@Ident ("," @Ident)*)? "]"`
}

// Disjunct is one tuple (pair) with an optional constraint list.
type Disjunct struct {
	Pos lexer.Position

	In   *Tuple  `@@`
	Out  *Tuple  `("->" @@)?`
	Cons *OrCons `(":" @@)?`
}

// Tuple is a bracketed list of dimension expressions; a bare fresh
// identifier names the dimension, anything else constrains it.
type Tuple struct {
	Entries []*Expr `"[" (@@ ("," @@)*)? "]"`
}

// OrCons is a disjunction of constraint conjunctions.
type OrCons struct {
	Ands []*AndCons `@@ ("or" @@)*`
}

// AndCons is a conjunction of constraints.
type AndCons struct {
	Cons []*Constraint `@@ (("and" | ",") @@)*`
}

// Constraint is an existential block or a (possibly chained)
// comparison.
type Constraint struct {
	Pos lexer.Position

	Exists *Exists   `  @@`
	Cmp    *CmpChain `| @@`
}

// Exists introduces local variables, optionally with floor
// definitions, scoped over a conjunction.
type Exists struct {
	Vars []*ExistsVar  `"exists" "(" @@ ("," @@)*`
	Cons []*Constraint `(":" @@ (("and" | ",") @@)*)? ")"`
}

// ExistsVar is one existential variable with an optional definition.
type ExistsVar struct {
	Name string    `@Ident`
	Def  *FloorDef `("=" @@)?`
}

// FloorDef is the div definition floor((expr)/d).
type FloorDef struct {
	Num *Expr  `"floor" "(" @@`
	Den string `"/" @Number ")"`
}

// CmpChain is a chained comparison such as 0 <= i < n.
type CmpChain struct {
	First *Expr     `@@`
	Rest  []*CmpRel `@@+`
}

// CmpRel is one comparison link.
type CmpRel struct {
	Op   string `@("<=" | ">=" | "<" | ">" | "=")`
	Expr *Expr  `@@`
}

// Expr is a sum of terms.
type Expr struct {
	First *Term     `@@`
	Rest  []*OpTerm `@@*`
}

// OpTerm is an additive continuation.
type OpTerm struct {
	Op   string `@("+" | "-")`
	Term *Term  `@@`
}

// Term is a product of factors with an optional mod suffix.
type Term struct {
	First *Factor   `@@`
	Muls  []*Factor `("*" @@)*`
	Mod   *string   `("mod" @Number)?`
}

// Factor is an atomic expression.
type Factor struct {
	Floor  *FloorDef   `  @@`
	Ceil   *CeilExpr   `| @@`
	MinMax *MinMaxExpr `| @@`
	Number *string     `| @Number`
	Ident  *string     `| @Ident`
	Neg    *Factor     `| "-" @@`
	Paren  *Expr       `| "(" @@ ")"`
}

// CeilExpr is ceil((expr)/d).
type CeilExpr struct {
	Num *Expr  `"ceil" "(" @@`
	Den string `"/" @Number ")"`
}

// MinMaxExpr is min(a, b, ...) or max(a, b, ...).
type MinMaxExpr struct {
	Op   string  `@("min" | "max")`
	Args []*Expr `"(" @@ ("," @@)* ")"`
}
