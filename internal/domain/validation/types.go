package validation

import "fmt"

// ValidationType tags the rule technology an artifact is evaluated with.
type ValidationType int

const (
	TypeSchema ValidationType = iota + 1
	TypeRuleAssertion
	TypeCodeList
)

// String returns the catalog spelling of the type.
func (t ValidationType) String() string {
	switch t {
	case TypeSchema:
		return "schema"
	case TypeRuleAssertion:
		return "rule-assertion"
	case TypeCodeList:
		return "code-list"
	default:
		return "unknown"
	}
}

// IsValid reports whether t is one of the known validation types.
func (t ValidationType) IsValid() bool {
	return t >= TypeSchema && t <= TypeCodeList
}

// ParseValidationType converts a catalog spelling back into a ValidationType.
func ParseValidationType(s string) (ValidationType, error) {
	switch s {
	case "schema":
		return TypeSchema, nil
	case "rule-assertion", "schematron":
		return TypeRuleAssertion, nil
	case "code-list", "codelist":
		return TypeCodeList, nil
	default:
		return 0, fmt.Errorf("%w: unknown validation type %q", ErrInvalidArgument, s)
	}
}

// Severity ranks findings. Higher values are worse.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity accepts info, warning and error, plus the Schematron flag
// spellings fatal (error) and warn (warning).
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "info", "information":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error", "fatal":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("%w: unknown severity %q", ErrInvalidArgument, s)
	}
}
