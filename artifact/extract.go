package artifact

import (
	"regexp"
	"strings"
)

// Fixed ID patterns. Recognition is deliberately regex-based rather than
// heuristic so that extraction is pure and repeatable.
var (
	entityIDRe      = regexp.MustCompile(`\b(FR-\d+|US\d+)\b`)
	taskIDRe        = regexp.MustCompile(`\bT\d{3}\b`)
	priorityRe      = regexp.MustCompile(`\bP([1-3])\b`)
	bulletRe        = regexp.MustCompile(`^(\s*)(?:[-*]|\d+\.)\s+(.*)$`)
	taskLineRe      = regexp.MustCompile(`^\s*[-*]\s*\[([ xX])\]\s+(.*)$`)
	bracketRefRe    = regexp.MustCompile(`\[(FR-\d+|US\d+)\]`)
	parallelFlagRe  = regexp.MustCompile(`\[P\]`)
	dependsClauseRe = regexp.MustCompile(`(?i)\bdepends\s+on\s+((?:T\d{3})(?:(?:\s*,\s*|\s+and\s+)T\d{3})*)`)
	principleNumRe  = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	nonNegMarkerRe  = regexp.MustCompile(`(?i)\s*\(non-negotiable\)`)
)

// Extract pulls all identifiable entities from the loaded artifacts.
// Extraction is pure and order-preserving: entities retain the order they
// appear in the source so downstream sorting by first occurrence works.
func Extract(artifacts map[Kind]*Artifact) *EntitySet {
	set := &EntitySet{}

	if spec := artifacts[KindSpecification]; spec != nil {
		reqs, skipped := ExtractRequirements(spec)
		set.Requirements = reqs
		set.Skipped = append(set.Skipped, skipped...)
	}
	if tasks := artifacts[KindTaskList]; tasks != nil {
		ts, skipped := ExtractTasks(tasks)
		set.Tasks = ts
		set.Skipped = append(set.Skipped, skipped...)
	}
	if constitution := artifacts[KindConstitution]; constitution != nil {
		set.Principles = ExtractPrinciples(constitution)
	}

	return set
}

// ExtractRequirements pulls requirements and user stories from the
// specification. Requirement bullets live under "Functional Requirements"
// (or "Requirements") and "User Stories" headings; a bullet in those
// sections with no recognizable ID is skipped and recorded, not rejected.
func ExtractRequirements(spec *Artifact) ([]Requirement, []Skipped) {
	var reqs []Requirement
	var skipped []Skipped

	for _, section := range spec.Sections {
		if !requirementsHeadRe.MatchString(section.Heading) && !storiesHeadingRe.MatchString(section.Heading) {
			continue
		}

		var current *Requirement
		lines := strings.Split(section.Body, "\n")
		for i, line := range lines {
			m := bulletRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
			if m == nil {
				continue
			}
			indent, text := m[1], strings.TrimSpace(m[2])
			loc := Location{Artifact: spec.Kind, Line: section.Line + 1 + i}

			if len(indent) > 0 && current != nil {
				// Sub-bullet: acceptance criterion of the open requirement
				current.AcceptanceCriteria = append(current.AcceptanceCriteria, text)
				continue
			}

			id := entityIDRe.FindString(text)
			if id == "" {
				current = nil
				skipped = append(skipped, Skipped{Text: text, Location: loc})
				continue
			}

			if current != nil {
				reqs = append(reqs, *current)
			}
			current = &Requirement{
				ID:       id,
				Text:     text,
				Priority: extractPriority(text),
				Location: loc,
			}
		}
		if current != nil {
			reqs = append(reqs, *current)
		}
	}

	return reqs, skipped
}

// extractPriority returns the explicit P1/P2/P3 marker, defaulting to P1.
// An unprioritized requirement that slips through uncovered should gate the
// run rather than slide by at a lower severity.
func extractPriority(text string) Priority {
	if m := priorityRe.FindString(text); m != "" {
		return Priority(m)
	}
	return PriorityP1
}

// ExtractTasks pulls checkbox tasks from the task list. A checkbox line
// with no T-id is skipped and recorded. Completed boxes parse identically
// to open ones.
func ExtractTasks(taskList *Artifact) ([]Task, []Skipped) {
	var tasks []Task
	var skipped []Skipped

	lines := strings.Split(taskList.RawText, "\n")
	for i, line := range lines {
		m := taskLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		state, rest := m[1], strings.TrimSpace(m[2])
		loc := Location{Artifact: taskList.Kind, Line: i + 1}

		id := taskIDRe.FindString(rest)
		if id == "" {
			skipped = append(skipped, Skipped{Text: rest, Location: loc})
			continue
		}

		task := Task{
			ID:        id,
			Parallel:  parallelFlagRe.MatchString(rest),
			Completed: state == "x" || state == "X",
			Location:  loc,
		}

		for _, ref := range bracketRefRe.FindAllStringSubmatch(rest, -1) {
			task.Refs = append(task.Refs, ref[1])
		}
		if len(task.Refs) > 0 {
			task.StoryLabel = task.Refs[0]
		}

		if dep := dependsClauseRe.FindStringSubmatch(rest); dep != nil {
			task.DependsOn = taskIDRe.FindAllString(dep[1], -1)
		}

		task.Description = cleanTaskDescription(rest, id)
		tasks = append(tasks, task)
	}

	return tasks, skipped
}

// cleanTaskDescription strips the task ID and bracket markers, leaving the
// human-readable description.
func cleanTaskDescription(rest, id string) string {
	desc := strings.Replace(rest, id, "", 1)
	desc = parallelFlagRe.ReplaceAllString(desc, "")
	desc = bracketRefRe.ReplaceAllString(desc, "")
	desc = strings.Join(strings.Fields(desc), " ")
	return strings.TrimSpace(desc)
}

// ExtractPrinciples pulls principles from the constitution. Principles are
// "### N. <name>" sections; a principle is non-negotiable when its heading
// or body says NON-NEGOTIABLE.
func ExtractPrinciples(constitution *Artifact) []Principle {
	var principles []Principle

	for _, section := range constitution.Sections {
		if section.Level != 3 {
			continue
		}
		m := principleNumRe.FindStringSubmatch(section.Heading)
		if m == nil {
			continue
		}

		number := 0
		for _, r := range m[1] {
			number = number*10 + int(r-'0')
		}
		name := strings.TrimSpace(m[2])
		body := strings.TrimSpace(section.Body)
		upper := strings.ToUpper(name + " " + body)
		name = strings.TrimSpace(nonNegMarkerRe.ReplaceAllString(name, ""))

		principles = append(principles, Principle{
			ID:            "Principle " + m[1],
			Number:        number,
			Name:          name,
			Text:          body,
			NonNegotiable: strings.Contains(upper, "NON-NEGOTIABLE"),
			Location:      Location{Artifact: constitution.Kind, Line: section.Line},
		})
	}

	return principles
}
