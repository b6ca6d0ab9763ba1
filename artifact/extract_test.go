package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, kind Kind, content string) *Artifact {
	t.Helper()
	a, err := Parse(kind, string(kind)+".md", []byte(content))
	require.NoError(t, err)
	return a
}

func TestExtractRequirements(t *testing.T) {
	spec := mustParse(t, KindSpecification, `# Spec

## Functional Requirements

- FR-1 (P1): Process card payments
  - Given a valid card, when charged, then a receipt is issued
- FR-2: Refund within 30 days
- FR-3 (P3): Export monthly statements
- should also handle chargebacks somehow

## User Stories

- US1: As a shopper I can pay, covering FR-1 and FR-2
`)

	reqs, skipped := ExtractRequirements(spec)
	require.Len(t, reqs, 4)

	assert.Equal(t, "FR-1", reqs[0].ID)
	assert.Equal(t, PriorityP1, reqs[0].Priority)
	require.Len(t, reqs[0].AcceptanceCriteria, 1)
	assert.Contains(t, reqs[0].AcceptanceCriteria[0], "receipt")
	assert.Equal(t, KindSpecification, reqs[0].Location.Artifact)
	assert.Equal(t, 5, reqs[0].Location.Line)

	assert.Equal(t, "FR-2", reqs[1].ID)
	assert.Equal(t, PriorityP1, reqs[1].Priority, "unmarked requirements default to P1")

	assert.Equal(t, "FR-3", reqs[2].ID)
	assert.Equal(t, PriorityP3, reqs[2].Priority)

	assert.Equal(t, "US1", reqs[3].ID)
	assert.True(t, reqs[3].IsStory())

	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Text, "chargebacks")
}

func TestExtractRequirementsIgnoresOtherSections(t *testing.T) {
	spec := mustParse(t, KindSpecification, `# Spec

## Overview

- FR-99: this bullet is not in a requirements section

## Functional Requirements

- FR-1: Real requirement
`)

	reqs, skipped := ExtractRequirements(spec)
	require.Len(t, reqs, 1)
	assert.Equal(t, "FR-1", reqs[0].ID)
	assert.Empty(t, skipped)
}

func TestExtractTasks(t *testing.T) {
	tasks := mustParse(t, KindTaskList, `# Tasks

- [ ] T001 [US1] Implement payment handler
- [x] T002 [FR-2] [P] Implement refund flow
- [ ] T003 Wire up exports, depends on T001 and T002
- [ ] do something unnamed
`)

	ts, skipped := ExtractTasks(tasks)
	require.Len(t, ts, 3)

	assert.Equal(t, "T001", ts[0].ID)
	assert.Equal(t, "US1", ts[0].StoryLabel)
	assert.Equal(t, []string{"US1"}, ts[0].Refs)
	assert.False(t, ts[0].Completed)
	assert.Equal(t, "Implement payment handler", ts[0].Description)
	assert.Equal(t, 3, ts[0].Location.Line)

	assert.Equal(t, "T002", ts[1].ID)
	assert.True(t, ts[1].Completed)
	assert.True(t, ts[1].Parallel)
	assert.Equal(t, []string{"FR-2"}, ts[1].Refs)

	assert.Equal(t, "T003", ts[2].ID)
	assert.Equal(t, []string{"T001", "T002"}, ts[2].DependsOn)
	assert.Empty(t, ts[2].Refs)

	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Text, "unnamed")
}

func TestExtractTasksDependsOnCommaList(t *testing.T) {
	tasks := mustParse(t, KindTaskList, `# Tasks

- [ ] T010 Step one, depends on T011
- [ ] T011 Step two, depends on T010, T012
- [ ] T012 Step three
`)

	ts, _ := ExtractTasks(tasks)
	require.Len(t, ts, 3)
	assert.Equal(t, []string{"T011"}, ts[0].DependsOn)
	assert.Equal(t, []string{"T010", "T012"}, ts[1].DependsOn)
	assert.Empty(t, ts[2].DependsOn)
}

func TestExtractPrinciples(t *testing.T) {
	constitution := mustParse(t, KindConstitution, `# Constitution

## Principles

### 1. Testing First (NON-NEGOTIABLE)

Every change ships with tests.

### 2. Simplicity

Prefer the boring solution.

### 3. Security

All data access MUST be audited. NON-NEGOTIABLE.
`)

	principles := ExtractPrinciples(constitution)
	require.Len(t, principles, 3)

	assert.Equal(t, "Principle 1", principles[0].ID)
	assert.Equal(t, 1, principles[0].Number)
	assert.Equal(t, "Testing First", principles[0].Name, "marker is stripped from the name")
	assert.True(t, principles[0].NonNegotiable)
	assert.Equal(t, KindConstitution, principles[0].Location.Artifact)

	assert.Equal(t, "Simplicity", principles[1].Name)
	assert.False(t, principles[1].NonNegotiable)

	assert.True(t, principles[2].NonNegotiable, "marker in the body counts")
}

func TestExtract(t *testing.T) {
	artifacts := map[Kind]*Artifact{
		KindSpecification: mustParse(t, KindSpecification,
			"# Spec\n\n## Functional Requirements\n\n- FR-1: Pay\n"),
		KindTaskList: mustParse(t, KindTaskList,
			"# Tasks\n\n- [ ] T001 [FR-1] Do it\n"),
		KindConstitution: mustParse(t, KindConstitution,
			"# C\n\n## Principles\n\n### 1. Testing\n\nBody.\n"),
	}

	set := Extract(artifacts)
	require.Len(t, set.Requirements, 1)
	require.Len(t, set.Tasks, 1)
	require.Len(t, set.Principles, 1)

	req, ok := set.Requirement("FR-1")
	require.True(t, ok)
	assert.Equal(t, "FR-1", req.ID)

	task, ok := set.Task("T001")
	require.True(t, ok)
	assert.Equal(t, "FR-1", task.StoryLabel)

	_, ok = set.Requirement("FR-9")
	assert.False(t, ok)
}
