// Package cli holds the option handling shared by the command-line
// tools: the recognized long options are mapped onto engine options on
// a Context.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"presburger/internal/poly"
)

// Version is the version string reported by --version.
const Version = "presburger 0.1.0"

// Options collects the recognized long options.
type Options struct {
	Format     string
	LPSolver   string
	ILPSolver  string
	Context    string
	Gbr        string
	Closure    string
	ConvexHull string
	Bound      string

	ScheduleParametric        bool
	ScheduleMaximizeBandDepth bool
	ScheduleSplitParallel     bool

	Version bool
}

// Register installs the recognized flags on fs.
func Register(fs *flag.FlagSet) *Options {
	o := &Options{}
	fs.StringVar(&o.Format, "format", "isl", "output format (isl|omega|polylib|latex)")
	fs.StringVar(&o.LPSolver, "lp-solver", "tab", "LP solver (tab|pip)")
	fs.StringVar(&o.ILPSolver, "ilp-solver", "gbr", "ILP solver (gbr|pip)")
	fs.StringVar(&o.Context, "context", "gbr", "context solver (gbr|lexmin)")
	fs.StringVar(&o.Gbr, "gbr", "once", "basis reduction policy (never|once|always)")
	fs.StringVar(&o.Closure, "closure", "isl", "closure algorithm (isl|box)")
	fs.StringVar(&o.ConvexHull, "convex-hull", "wrap", "convex hull algorithm (wrap|fm)")
	fs.StringVar(&o.Bound, "bound", "range", "bound algorithm (bernstein|range)")
	fs.BoolVar(&o.ScheduleParametric, "schedule-parametric", false, "compute parametric schedules")
	fs.BoolVar(&o.ScheduleMaximizeBandDepth, "schedule-maximize-band-depth", false, "maximize band depth in schedules")
	fs.BoolVar(&o.ScheduleSplitParallel, "schedule-split-parallel", false, "split bands at parallel dimensions")
	fs.BoolVar(&o.Version, "version", false, "print version and exit")
	return o
}

// Apply validates the option values and installs them on ctx,
// returning the selected output format.
func (o *Options) Apply(ctx *poly.Context) (poly.Format, error) {
	format, ok := poly.ParseFormat(o.Format)
	if !ok {
		return 0, fmt.Errorf("unknown format %q", o.Format)
	}
	switch o.LPSolver {
	case "tab":
		ctx.Opt.LPSolver = poly.SolverTab
	case "pip":
		ctx.Opt.LPSolver = poly.SolverPIP
	default:
		return 0, fmt.Errorf("unknown lp solver %q", o.LPSolver)
	}
	switch o.ILPSolver {
	case "gbr":
		ctx.Opt.ILPSolver = poly.SolverGBR
	case "pip":
		ctx.Opt.ILPSolver = poly.SolverPIP
	default:
		return 0, fmt.Errorf("unknown ilp solver %q", o.ILPSolver)
	}
	switch o.Context {
	case "gbr":
		ctx.Opt.Context = poly.ContextGBR
	case "lexmin":
		ctx.Opt.Context = poly.ContextLexmin
	default:
		return 0, fmt.Errorf("unknown context solver %q", o.Context)
	}
	switch o.Gbr {
	case "never":
		ctx.Opt.Gbr = poly.GbrNever
	case "once":
		ctx.Opt.Gbr = poly.GbrOnce
	case "always":
		ctx.Opt.Gbr = poly.GbrAlways
	default:
		return 0, fmt.Errorf("unknown gbr policy %q", o.Gbr)
	}
	switch o.Closure {
	case "isl":
		ctx.Opt.Closure = poly.ClosureISL
	case "box":
		ctx.Opt.Closure = poly.ClosureBox
	default:
		return 0, fmt.Errorf("unknown closure algorithm %q", o.Closure)
	}
	switch o.ConvexHull {
	case "wrap":
		ctx.Opt.ConvexHull = poly.HullWrap
	case "fm":
		ctx.Opt.ConvexHull = poly.HullFM
	default:
		return 0, fmt.Errorf("unknown convex hull algorithm %q", o.ConvexHull)
	}
	switch o.Bound {
	case "range":
		ctx.Opt.Bound = poly.BoundRange
	case "bernstein":
		ctx.Opt.Bound = poly.BoundBernstein
	default:
		return 0, fmt.Errorf("unknown bound algorithm %q", o.Bound)
	}
	ctx.Opt.ScheduleParametric = o.ScheduleParametric
	ctx.Opt.ScheduleMaximizeBandDepth = o.ScheduleMaximizeBandDepth
	ctx.Opt.ScheduleSplitParallel = o.ScheduleSplitParallel
	return format, nil
}

// ReadInput reads the whole input: the named file when an argument is
// given, standard input otherwise.
func ReadInput(args []string) (string, string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return args[0], string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", err
	}
	return "<stdin>", string(data), nil
}
