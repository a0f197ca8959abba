package validation

// Outcome aggregates all layers of a run.
type Outcome int

const (
	// OutcomeNotApplied means no layer applied (every layer ignored, or none present).
	OutcomeNotApplied Outcome = iota + 1
	// OutcomePassed means at least one layer applied and nothing was reported.
	OutcomePassed
	OutcomeInfo
	OutcomeWarning
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotApplied:
		return "not-applied"
	case OutcomePassed:
		return "passed"
	case OutcomeInfo:
		return "info"
	case OutcomeWarning:
		return "warning"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// LayerEntry pairs an artifact with the result its executor produced.
type LayerEntry struct {
	Artifact *Artifact
	Result   LayerResult
}

// Result is the ordered outcome of running one executor set on one document.
type Result struct {
	setID    VESID
	runID    string
	systemID string
	layers   []LayerEntry
}

// NewResult assembles a result. Layers must be in execution order.
func NewResult(setID VESID, systemID string, layers []LayerEntry) *Result {
	return &Result{
		setID:    setID,
		systemID: systemID,
		layers:   append([]LayerEntry(nil), layers...),
	}
}

// SetID returns the ID of the executor set that produced the result.
func (r *Result) SetID() VESID {
	return r.setID
}

// SystemID returns the identity of the validated document.
func (r *Result) SystemID() string {
	return r.systemID
}

// RunID returns the run correlation ID, if one was assigned.
func (r *Result) RunID() string {
	return r.runID
}

// WithRunID sets the run correlation ID and returns r.
func (r *Result) WithRunID(id string) *Result {
	r.runID = id
	return r
}

// Layers returns a copy of the layer entries in execution order.
func (r *Result) Layers() []LayerEntry {
	return append([]LayerEntry(nil), r.layers...)
}

// Len returns the number of layers.
func (r *Result) Len() int {
	return len(r.layers)
}

// Outcome returns the worst severity across non-ignored layers.
func (r *Result) Outcome() Outcome {
	applied := false
	var worst Severity
	for _, l := range r.layers {
		if l.Result.IsIgnored() {
			continue
		}
		applied = true
		if s := l.Result.WorstSeverity(); s > worst {
			worst = s
		}
	}
	if !applied {
		return OutcomeNotApplied
	}
	switch worst {
	case SeverityError:
		return OutcomeError
	case SeverityWarning:
		return OutcomeWarning
	case SeverityInfo:
		return OutcomeInfo
	default:
		return OutcomePassed
	}
}

// IsValid reports whether no applied layer reported an error.
func (r *Result) IsValid() bool {
	return r.Outcome() != OutcomeError
}

// Findings returns every finding of every applied layer in execution order.
func (r *Result) Findings() []Finding {
	var all []Finding
	for _, l := range r.layers {
		all = append(all, l.Result.findings...)
	}
	return all
}

// FindingsOfSeverity returns the findings with exactly the given severity.
func (r *Result) FindingsOfSeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings() {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of findings with the given severity.
func (r *Result) Count(s Severity) int {
	return len(r.FindingsOfSeverity(s))
}

// IgnoredCount returns the number of layers that did not apply.
func (r *Result) IgnoredCount() int {
	n := 0
	for _, l := range r.layers {
		if l.Result.IsIgnored() {
			n++
		}
	}
	return n
}
