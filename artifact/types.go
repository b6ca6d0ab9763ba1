// Package artifact provides loading and entity extraction for the four
// workflow artifacts: specification, plan, task list, and constitution.
package artifact

import "fmt"

// Kind identifies one of the four artifact types.
type Kind string

const (
	// KindSpecification is the requirements specification artifact.
	KindSpecification Kind = "specification"
	// KindPlan is the technical plan artifact.
	KindPlan Kind = "plan"
	// KindTaskList is the task list artifact.
	KindTaskList Kind = "tasklist"
	// KindConstitution is the governance artifact.
	KindConstitution Kind = "constitution"
)

// Kinds lists all artifact kinds in canonical order.
var Kinds = []Kind{KindSpecification, KindPlan, KindTaskList, KindConstitution}

// IsValid returns true if the kind is a known artifact kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindSpecification, KindPlan, KindTaskList, KindConstitution:
		return true
	default:
		return false
	}
}

// Location identifies where an entity or finding appears in an artifact.
type Location struct {
	// Artifact is the artifact kind the location refers to
	Artifact Kind `json:"artifact"`

	// Line is the 1-based line number within the artifact
	Line int `json:"line"`
}

// String returns the location as "kind:line".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Artifact, l.Line)
}

// Less reports whether l orders before other (artifact kind, then line).
func (l Location) Less(other Location) bool {
	if l.Artifact != other.Artifact {
		return l.Artifact < other.Artifact
	}
	return l.Line < other.Line
}

// Section is one heading-delimited region of an artifact.
type Section struct {
	// Heading is the heading text without the marker
	Heading string `json:"heading"`

	// Level is the heading level (1 for #, 2 for ##, ...)
	Level int `json:"level"`

	// Body is the section content up to the next heading
	Body string `json:"body"`

	// Line is the 1-based line number of the heading
	Line int `json:"line"`
}

// Artifact is a loaded workflow document. Artifacts are created once per
// analysis run and are immutable after loading.
type Artifact struct {
	// Kind is the artifact type
	Kind Kind `json:"kind"`

	// Path is the file the artifact was loaded from
	Path string `json:"path"`

	// Title is the first level-1 heading, or the frontmatter title
	Title string `json:"title"`

	// RawText is the full artifact body (after frontmatter and any
	// HTML-to-markdown conversion)
	RawText string `json:"-"`

	// Frontmatter holds parsed YAML frontmatter, if any
	Frontmatter map[string]any `json:"frontmatter,omitempty"`

	// Sections are the heading-delimited regions in source order
	Sections []Section `json:"sections"`
}

// ParseError is the only fatal error in the pipeline: a required section
// is missing from an artifact. It aborts the run before any analysis.
type ParseError struct {
	// Artifact is the kind that failed to parse
	Artifact Kind

	// MissingSection names the required section that was absent
	MissingSection string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: missing required section %q", e.Artifact, e.MissingSection)
}

// Priority is a requirement priority.
type Priority string

const (
	// PriorityP1 is the highest priority.
	PriorityP1 Priority = "P1"
	// PriorityP2 is medium priority.
	PriorityP2 Priority = "P2"
	// PriorityP3 is the lowest priority.
	PriorityP3 Priority = "P3"
)

// IsHigh returns true for priorities that escalate findings (P1/P2).
func (p Priority) IsHigh() bool {
	return p == PriorityP1 || p == PriorityP2
}

// Requirement is a functional requirement (FR-n) or user story (USn)
// extracted from the specification.
type Requirement struct {
	// ID is the requirement identifier, matching FR-\d+ or US\d+
	ID string `json:"id"`

	// Text is the requirement statement
	Text string `json:"text"`

	// Priority is P1, P2, or P3 (P1 when the source does not say)
	Priority Priority `json:"priority"`

	// AcceptanceCriteria are the sub-bullets following the requirement
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`

	// Location is where the requirement appears
	Location Location `json:"location"`
}

// IsStory returns true for user-story requirements (US ids).
func (r Requirement) IsStory() bool {
	return len(r.ID) > 2 && r.ID[0] == 'U' && r.ID[1] == 'S'
}

// Task is a checkbox task extracted from the task list.
type Task struct {
	// ID is the task identifier, matching T\d{3}
	ID string `json:"id"`

	// StoryLabel is the first bracketed requirement reference, if any
	StoryLabel string `json:"story_label,omitempty"`

	// Refs lists every bracketed requirement reference in the line
	Refs []string `json:"refs,omitempty"`

	// Description is the task text after markers are stripped
	Description string `json:"description"`

	// Parallel is true when the task carries a [P] flag
	Parallel bool `json:"parallel,omitempty"`

	// Completed is true for checked boxes ([x])
	Completed bool `json:"completed,omitempty"`

	// DependsOn lists task IDs named by "depends on" clauses
	DependsOn []string `json:"depends_on,omitempty"`

	// Location is where the task appears
	Location Location `json:"location"`
}

// Principle is a governance principle from the constitution.
type Principle struct {
	// ID is the principle identifier ("Principle N")
	ID string `json:"id"`

	// Number is the principle number from the heading
	Number int `json:"number"`

	// Name is the principle name from the heading
	Name string `json:"name"`

	// Text is the principle body
	Text string `json:"text"`

	// NonNegotiable is true when the principle is marked NON-NEGOTIABLE
	NonNegotiable bool `json:"non_negotiable"`

	// Location is where the principle appears
	Location Location `json:"location"`
}

// Skipped records a candidate entity whose body contained no recognizable
// ID. Skipped entries become low-severity ambiguity findings downstream;
// they are never errors.
type Skipped struct {
	// Text is the line that was skipped
	Text string `json:"text"`

	// Location is where the line appears
	Location Location `json:"location"`
}

// EntitySet holds everything the extractor pulled from the four artifacts,
// in source order.
type EntitySet struct {
	Requirements []Requirement `json:"requirements"`
	Tasks        []Task        `json:"tasks"`
	Principles   []Principle   `json:"principles"`
	Skipped      []Skipped     `json:"skipped,omitempty"`
}

// Requirement returns the requirement with the given ID, if present.
func (s *EntitySet) Requirement(id string) (Requirement, bool) {
	for _, r := range s.Requirements {
		if r.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// Task returns the task with the given ID, if present.
func (s *EntitySet) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
