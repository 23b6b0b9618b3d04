// Package poly implements the symbolic polyhedral engine: spaces, local
// spaces with integer divisions, basic maps and their disjunctive
// closure, the simplex tableau with integer pivoting, parametric integer
// lexmin, hulls, coalescing, transitive closure, and dependence flow.
//
// All arithmetic is exact over arbitrary-precision integers from
// internal/num. Objects belong to a Context and must not be mixed across
// Contexts.
package poly

import (
	"fmt"
	"sync/atomic"

	"github.com/tliron/commonlog"
)

// ErrorKind classifies the last failure recorded on a Context.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrAbort
	ErrUnknown
	ErrInternal
	ErrInvalid
	ErrUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrAbort:
		return "abort"
	case ErrInternal:
		return "internal"
	case ErrInvalid:
		return "invalid"
	case ErrUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error carries an ErrorKind and a message; every failing engine
// operation returns one and records it on the Context.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// GbrPolicy controls how often generalized basis reduction re-runs
// during a single parametric integer program.
type GbrPolicy int

const (
	GbrOnce GbrPolicy = iota
	GbrNever
	GbrAlways
)

// ClosureAlgorithm selects the transitive-closure strategy.
type ClosureAlgorithm int

const (
	ClosureISL ClosureAlgorithm = iota
	ClosureBox
)

// HullAlgorithm selects the convex-hull strategy.
type HullAlgorithm int

const (
	HullWrap HullAlgorithm = iota
	HullFM
)

// Solver selects an LP or ILP backend.
type Solver int

const (
	SolverTab Solver = iota
	SolverPIP
	SolverGBR
)

// ContextAlgorithm selects how the PIP context tableau decides signs.
type ContextAlgorithm int

const (
	ContextGBR ContextAlgorithm = iota
	ContextLexmin
)

// BoundAlgorithm selects the symbolic bound method.
type BoundAlgorithm int

const (
	BoundRange BoundAlgorithm = iota
	BoundBernstein
)

// Options collects the tunables recognized by the CLI tools.
type Options struct {
	LPSolver   Solver
	ILPSolver  Solver
	Context    ContextAlgorithm
	Gbr        GbrPolicy
	Closure    ClosureAlgorithm
	ConvexHull HullAlgorithm
	Bound      BoundAlgorithm

	ScheduleParametric        bool
	ScheduleMaximizeBandDepth bool
	ScheduleSplitParallel     bool
}

// Stats counts work done by the engine since the Context was created.
type Stats struct {
	GbrSolvedLPs int64
	Pivots       int64
}

// Id is an interned identifier. Two Ids from the same Context with the
// same name are pointer-identical, so comparison is by identity.
type Id struct {
	name string
}

// Name returns the identifier's name.
func (id *Id) Name() string {
	if id == nil {
		return ""
	}
	return id.name
}

// Context owns interned identifiers, option values, the last-error slot,
// the abort flag, and statistics. A Context and the objects built in it
// are confined to one goroutine; only Abort may be called from another.
type Context struct {
	ids     map[string]*Id
	lastErr ErrorKind
	lastMsg string
	aborted atomic.Bool

	Opt   Options
	Stats Stats

	log commonlog.Logger
}

// NewContext returns a fresh Context with default options.
func NewContext() *Context {
	return &Context{
		ids: make(map[string]*Id),
		log: commonlog.GetLogger("presburger"),
	}
}

// ID interns name and returns its identifier. Repeated lookups return
// the identical pointer.
func (c *Context) ID(name string) *Id {
	if id, ok := c.ids[name]; ok {
		return id
	}
	id := &Id{name: name}
	c.ids[name] = id
	return id
}

// Errorf records an error of the given kind on the Context and returns
// it.
func (c *Context) Errorf(kind ErrorKind, format string, args ...any) error {
	c.lastErr = kind
	c.lastMsg = fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Msg: c.lastMsg}
}

// LastError returns the kind of the most recent recorded error.
func (c *Context) LastError() ErrorKind { return c.lastErr }

// ResetError clears the error slot.
func (c *Context) ResetError() {
	c.lastErr = ErrNone
	c.lastMsg = ""
}

// Abort requests cooperative cancellation. It only sets an atomic flag
// and is the one Context entry point safe to call from another
// goroutine or a signal handler.
func (c *Context) Abort() { c.aborted.Store(true) }

// Resume clears a pending abort request.
func (c *Context) Resume() { c.aborted.Store(false) }

// Aborted reports whether an abort has been requested.
func (c *Context) Aborted() bool { return c.aborted.Load() }

// checkAbort is called at the head of every iterative algorithm.
func (c *Context) checkAbort() error {
	if c.Aborted() {
		return c.Errorf(ErrAbort, "operation aborted")
	}
	return nil
}

// Log returns the Context's logger.
func (c *Context) Log() commonlog.Logger { return c.log }
