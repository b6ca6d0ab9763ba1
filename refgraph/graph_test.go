package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specgate/artifact"
)

func testEntitySet() *artifact.EntitySet {
	return &artifact.EntitySet{
		Requirements: []artifact.Requirement{
			{ID: "FR-1", Text: "FR-1: Process payments", Priority: artifact.PriorityP1,
				Location: artifact.Location{Artifact: artifact.KindSpecification, Line: 5}},
			{ID: "FR-2", Text: "FR-2: Refund", Priority: artifact.PriorityP2,
				Location: artifact.Location{Artifact: artifact.KindSpecification, Line: 6}},
			{ID: "US1", Text: "US1: As a shopper I can pay, covering FR-1",
				Location: artifact.Location{Artifact: artifact.KindSpecification, Line: 10}},
		},
		Tasks: []artifact.Task{
			{ID: "T001", Refs: []string{"US1"}, StoryLabel: "US1",
				Location: artifact.Location{Artifact: artifact.KindTaskList, Line: 3}},
			{ID: "T002", Refs: []string{"FR-2"}, StoryLabel: "FR-2", DependsOn: []string{"T001"},
				Location: artifact.Location{Artifact: artifact.KindTaskList, Line: 4}},
		},
	}
}

func TestBuildEdges(t *testing.T) {
	g := Build(testEntitySet())

	assert.Equal(t, []string{"FR-1", "FR-2", "T001", "T002", "US1"}, g.Nodes())
	assert.Equal(t, []string{"US1"}, g.Satisfies("T001"))
	assert.Equal(t, []string{"FR-2"}, g.Satisfies("T002"))
	assert.Equal(t, []string{"FR-1"}, g.Satisfies("US1"), "story text FR ids become satisfies edges")
	assert.Empty(t, g.Dangling)
}

func TestBuildDangling(t *testing.T) {
	set := testEntitySet()
	set.Tasks = append(set.Tasks, artifact.Task{
		ID:   "T003",
		Refs: []string{"FR-9"},
		Location: artifact.Location{
			Artifact: artifact.KindTaskList, Line: 5,
		},
	})

	g := Build(set)
	require.Len(t, g.Dangling, 1)
	assert.Equal(t, "T003", g.Dangling[0].FromID)
	assert.Equal(t, "FR-9", g.Dangling[0].Label)
	assert.Equal(t, RelationSatisfies, g.Dangling[0].Relation)
	assert.False(t, g.IsMapped("T003"), "a dangling ref does not count as mapped")
}

func TestBuildDanglingDependency(t *testing.T) {
	set := testEntitySet()
	set.Tasks[1].DependsOn = []string{"T099"}

	g := Build(set)
	require.Len(t, g.Dangling, 1)
	assert.Equal(t, "T099", g.Dangling[0].Label)
	assert.Equal(t, RelationDependsOn, g.Dangling[0].Relation)
}

func TestReachable(t *testing.T) {
	g := Build(testEntitySet())

	covered := g.Reachable([]string{"T001", "T002"})
	assert.True(t, covered["FR-1"], "FR-1 is covered transitively through US1")
	assert.True(t, covered["FR-2"])
	assert.True(t, covered["US1"])
	assert.False(t, covered["T001"], "start nodes are not their own targets")
}

func TestSatisfiesInDegree(t *testing.T) {
	g := Build(testEntitySet())

	assert.Equal(t, 1, g.SatisfiesInDegree("US1"))
	assert.Equal(t, 1, g.SatisfiesInDegree("FR-1"))
	assert.Equal(t, 0, g.SatisfiesInDegree("T001"))
}

func TestIsMapped(t *testing.T) {
	g := Build(testEntitySet())

	assert.True(t, g.IsMapped("T001"))
	assert.True(t, g.IsMapped("T002"))
	assert.False(t, g.IsMapped("FR-1"))
}
