package presentation

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatSets formats a list of executor sets as JSON
func (f *Formatter) FormatSets(sets []SetDTO) error {
	return f.encode(sets)
}

// FormatResults formats a list of run results as JSON
func (f *Formatter) FormatResults(results []ResultDTO) error {
	return f.encode(results)
}

// FormatText writes a human-readable report, one block per result.
func (f *Formatter) FormatText(results []ResultDTO) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(f.writer, "%s: %s (%d errors, %d warnings, %d infos, %d ignored)\n",
			r.Document, r.Outcome, r.Errors, r.Warnings, r.Infos, r.Ignored); err != nil {
			return err
		}
		for _, l := range r.Layers {
			status := l.Status
			if l.IgnoreReason != "" {
				status += ": " + l.IgnoreReason
			}
			if _, err := fmt.Fprintf(f.writer, "  [%s] %s %s\n", l.Type, l.Artifact, status); err != nil {
				return err
			}
			for _, fd := range l.Findings {
				if _, err := fmt.Fprintf(f.writer, "    %-7s %s\n", fd.Severity, findingLine(fd)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func findingLine(fd FindingDTO) string {
	loc := fd.Location
	if fd.Path != "" {
		loc += "#" + fd.Path
	}
	if fd.RuleID != "" {
		return fmt.Sprintf("%s %s: %s", fd.RuleID, loc, fd.Message)
	}
	return fmt.Sprintf("%s: %s", loc, fd.Message)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
