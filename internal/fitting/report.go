package fitting

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ClearanceReport summarizes how far the conformed socket region sits from
// the scan surface. Distances are meters.
type ClearanceReport struct {
	Samples int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64

	// WithinTolerance is the fraction of samples within tolerance of the
	// requested clearance.
	WithinTolerance float64
}

// reportTolerance is how far a conformed vertex may deviate from the
// requested clearance before it counts against the report.
const reportTolerance = 1e-4

// Report evaluates the handle and measures region clearance against the
// scan surface.
func (h *Handle) Report() (ClearanceReport, error) {
	conformed, err := h.Evaluate()
	if err != nil {
		return ClearanceReport{}, err
	}

	verts := h.region
	if h.strategy == StrategySubtraction {
		verts = make([]int, len(conformed.Vertices))
		for i := range verts {
			verts[i] = i
		}
	}

	clearances := conformed.Clearances(verts, h.target)
	if len(clearances) == 0 {
		return ClearanceReport{}, degeneratef("no region vertices to measure")
	}

	r := ClearanceReport{
		Samples: len(clearances),
		Min:     clearances[0],
		Max:     clearances[0],
	}
	within := 0
	for _, c := range clearances {
		if c < r.Min {
			r.Min = c
		}
		if c > r.Max {
			r.Max = c
		}
		if c >= h.offset-reportTolerance {
			within++
		}
	}
	r.Mean, r.StdDev = stat.MeanStdDev(clearances, nil)
	r.WithinTolerance = float64(within) / float64(len(clearances))
	return r, nil
}

// String formats the report for logs and status labels.
func (r ClearanceReport) String() string {
	return fmt.Sprintf("clearance n=%d min=%.4f mean=%.4f max=%.4f sd=%.4f ok=%.0f%%",
		r.Samples, r.Min, r.Mean, r.Max, r.StdDev, r.WithinTolerance*100)
}
