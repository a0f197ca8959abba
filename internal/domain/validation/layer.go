package validation

// Location points at the origin of a finding.
type Location struct {
	SystemID string // document (or, for engine failures, rule resource) identity
	Path     string // optional in-document path, e.g. "/Invoice/cbc:ID"
}

// String renders the location as SystemID or SystemID#Path.
func (l Location) String() string {
	if l.Path == "" {
		return l.SystemID
	}
	return l.SystemID + "#" + l.Path
}

// Finding is one item reported by a rule technology.
type Finding struct {
	Severity Severity
	Message  string
	Location Location
	RuleID   string // optional, e.g. "BR-01"
	Test     string // optional, the rule test that produced the finding
}

// LayerStatus distinguishes the three layer outcomes.
type LayerStatus int

const (
	LayerPassed LayerStatus = iota + 1
	LayerFindings
	LayerIgnored
)

func (s LayerStatus) String() string {
	switch s {
	case LayerPassed:
		return "passed"
	case LayerFindings:
		return "findings"
	case LayerIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// IgnoreReason explains why a layer did not apply.
type IgnoreReason string

const (
	ReasonPreconditionNotMet  IgnoreReason = "precondition-not-met"
	ReasonEvaluationError     IgnoreReason = "evaluation-error"
	ReasonUnresolvedReference IgnoreReason = "unresolved-reference"
)

// LayerResult is the outcome of one executor invocation.
type LayerResult struct {
	status   LayerStatus
	findings []Finding
	reason   IgnoreReason
	detail   string
}

// Passed returns a result without findings.
func Passed() LayerResult {
	return LayerResult{status: LayerPassed}
}

// WithFindings returns a findings result, or Passed when findings is empty.
func WithFindings(findings []Finding) LayerResult {
	if len(findings) == 0 {
		return Passed()
	}
	return LayerResult{status: LayerFindings, findings: append([]Finding(nil), findings...)}
}

// Ignored returns a result for a layer that did not apply.
func Ignored(reason IgnoreReason, detail string) LayerResult {
	return LayerResult{status: LayerIgnored, reason: reason, detail: detail}
}

// Status returns the layer status.
func (r LayerResult) Status() LayerStatus {
	return r.status
}

// IsIgnored reports whether the layer did not apply.
func (r LayerResult) IsIgnored() bool {
	return r.status == LayerIgnored
}

// Findings returns a copy of the reported findings.
func (r LayerResult) Findings() []Finding {
	return append([]Finding(nil), r.findings...)
}

// Reason returns the ignore reason, or "" for applied layers.
func (r LayerResult) Reason() IgnoreReason {
	return r.reason
}

// Detail returns the diagnostic text attached to an ignored layer.
func (r LayerResult) Detail() string {
	return r.detail
}

// WorstSeverity returns the highest finding severity, or 0 when there is none.
func (r LayerResult) WorstSeverity() Severity {
	var worst Severity
	for _, f := range r.findings {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst
}
