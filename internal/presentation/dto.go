package presentation

import (
	"github.com/zjrosen/docval/internal/domain/validation"
)

// ResultDTO represents one validation run for presentation
type ResultDTO struct {
	RunID    string     `json:"run_id,omitempty"`
	Set      string     `json:"set"`
	Document string     `json:"document"`
	Outcome  string     `json:"outcome"`
	Valid    bool       `json:"valid"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
	Infos    int        `json:"infos"`
	Ignored  int        `json:"ignored"`
	Layers   []LayerDTO `json:"layers"`
}

// LayerDTO represents the result of one executor
type LayerDTO struct {
	Type         string       `json:"type"`
	Artifact     string       `json:"artifact"`
	Prerequisite string       `json:"prerequisite,omitempty"`
	Status       string       `json:"status"`
	IgnoreReason string       `json:"ignore_reason,omitempty"`
	Detail       string       `json:"detail,omitempty"`
	Findings     []FindingDTO `json:"findings"` // always present, may be empty
}

// FindingDTO represents a single finding
type FindingDTO struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Location string `json:"location"`
	Path     string `json:"path,omitempty"`
	RuleID   string `json:"rule_id,omitempty"`
	Test     string `json:"test,omitempty"`
}

// SetDTO represents a registered executor set
type SetDTO struct {
	ID         string        `json:"id"`
	Group      string        `json:"group"`
	Artifact   string        `json:"artifact"`
	Version    string        `json:"version"`
	Name       string        `json:"name"`
	Deprecated bool          `json:"deprecated"`
	Layers     []ArtifactDTO `json:"layers"`
}

// ArtifactDTO represents one layer definition of a set
type ArtifactDTO struct {
	Type         string `json:"type"`
	Location     string `json:"location"`
	Reference    bool   `json:"reference,omitempty"`
	Prerequisite string `json:"prerequisite,omitempty"`
}

// FromFinding converts a domain finding to a DTO.
func FromFinding(f validation.Finding) FindingDTO {
	return FindingDTO{
		Severity: f.Severity.String(),
		Message:  f.Message,
		Location: f.Location.SystemID,
		Path:     f.Location.Path,
		RuleID:   f.RuleID,
		Test:     f.Test,
	}
}

// FromLayer converts a layer entry to a DTO.
func FromLayer(entry validation.LayerEntry) LayerDTO {
	findings := entry.Result.Findings()
	dtos := make([]FindingDTO, len(findings))
	for i, f := range findings {
		dtos[i] = FromFinding(f)
	}
	return LayerDTO{
		Type:         entry.Artifact.Type().String(),
		Artifact:     entry.Artifact.Location(),
		Prerequisite: entry.Artifact.Prerequisite(),
		Status:       entry.Result.Status().String(),
		IgnoreReason: string(entry.Result.Reason()),
		Detail:       entry.Result.Detail(),
		Findings:     dtos,
	}
}

// FromResult converts a run result to a DTO
func FromResult(r *validation.Result) ResultDTO {
	layers := make([]LayerDTO, 0, r.Len())
	for _, entry := range r.Layers() {
		layers = append(layers, FromLayer(entry))
	}
	return ResultDTO{
		RunID:    r.RunID(),
		Set:      r.SetID().String(),
		Document: r.SystemID(),
		Outcome:  r.Outcome().String(),
		Valid:    r.IsValid(),
		Errors:   r.Count(validation.SeverityError),
		Warnings: r.Count(validation.SeverityWarning),
		Infos:    r.Count(validation.SeverityInfo),
		Ignored:  r.IgnoredCount(),
		Layers:   layers,
	}
}

// FromResults converts a slice of run results to DTOs
func FromResults(results []*validation.Result) []ResultDTO {
	dtos := make([]ResultDTO, len(results))
	for i, r := range results {
		dtos[i] = FromResult(r)
	}
	return dtos
}

// FromSet converts an executor set to a DTO
func FromSet[D validation.Source](s *validation.ExecutorSet[D]) SetDTO {
	artifacts := s.Artifacts()
	layers := make([]ArtifactDTO, len(artifacts))
	for i, a := range artifacts {
		layers[i] = ArtifactDTO{
			Type:         a.Type().String(),
			Location:     a.Location(),
			Reference:    a.IsReference(),
			Prerequisite: a.Prerequisite(),
		}
	}
	id := s.ID()
	return SetDTO{
		ID:         id.String(),
		Group:      id.Group(),
		Artifact:   id.Artifact(),
		Version:    id.Version(),
		Name:       s.Name(),
		Deprecated: s.Deprecated(),
		Layers:     layers,
	}
}

// FromSets converts a slice of executor sets to DTOs
func FromSets[D validation.Source](sets []*validation.ExecutorSet[D]) []SetDTO {
	dtos := make([]SetDTO, len(sets))
	for i, s := range sets {
		dtos[i] = FromSet(s)
	}
	return dtos
}
