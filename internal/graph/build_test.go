package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/grana/internal/model"
)

func action(name string, deps ...string) *model.Action {
	expects := make(map[string]model.Dependency, len(deps))
	for _, dep := range deps {
		expects[dep] = model.Dependency{}
	}
	return &model.Action{Name: name, Type: "echo", Expects: expects}
}

func TestBuild_Diamond(t *testing.T) {
	t.Parallel()

	g, err := Build([]*model.Action{
		action("a"),
		action("b", "a"),
		action("c", "a"),
		action("d", "b", "c"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"a"}, g.Roots())
	assert.ElementsMatch(t, []string{"b", "c"}, g.Dependents("a"))
	assert.ElementsMatch(t, []string{"b", "c"}, g.Dependencies("d"))

	topo := g.TopologicalOrder()
	require.Len(t, topo, 4)
	assert.Equal(t, "a", topo[0])
	assert.Equal(t, "d", topo[3])

	tiers := g.Tiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, []string{"a"}, tiers[0])
	assert.ElementsMatch(t, []string{"b", "c"}, tiers[1])
	assert.Equal(t, []string{"d"}, tiers[2])
}

func TestBuild_DeclarationOrderPreserved(t *testing.T) {
	t.Parallel()

	g, err := Build([]*model.Action{
		action("zeta"),
		action("alpha"),
		action("mid", "zeta"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, g.DeclarationOrder())
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, g.Names())
}

func TestBuild_DuplicateAction(t *testing.T) {
	t.Parallel()

	_, err := Build([]*model.Action{action("a"), action("a")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindDuplicateAction, verr.Kind)
	assert.Equal(t, "a", verr.Name)
}

func TestBuild_UnknownDependency(t *testing.T) {
	t.Parallel()

	_, err := Build([]*model.Action{action("a", "ghost")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindUnknownDependency, verr.Kind)
	assert.Contains(t, verr.Error(), "ghost")
}

func TestBuild_ExternalDependencyPruned(t *testing.T) {
	t.Parallel()

	a := action("a")
	b := action("b")
	b.Expects = map[string]model.Dependency{
		"a":       {},
		"outside": {External: true},
	}
	g, err := Build([]*model.Action{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
}

func TestBuild_CycleReported(t *testing.T) {
	t.Parallel()

	_, err := Build([]*model.Action{
		action("a", "c"),
		action("b", "a"),
		action("c", "b"),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindCycleDetected, verr.Kind)
	// The reported walk comes back to its entry node.
	require.NotEmpty(t, verr.Cycle)
	assert.Equal(t, verr.Cycle[0], verr.Cycle[len(verr.Cycle)-1])
	assert.GreaterOrEqual(t, len(verr.Cycle), 4)
}

func TestBuild_SelfCycle(t *testing.T) {
	t.Parallel()

	_, err := Build([]*model.Action{action("a", "a")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindCycleDetected, verr.Kind)
}

func TestBuild_NoEntrypoints(t *testing.T) {
	t.Parallel()

	// A fully cyclic graph is reported as a cycle, not as missing
	// entrypoints.
	_, err := Build([]*model.Action{
		action("a", "b"),
		action("b", "a"),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindCycleDetected, verr.Kind)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	g, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Roots())
}

func TestEdge(t *testing.T) {
	t.Parallel()

	a := action("a")
	b := action("b")
	b.Expects = map[string]model.Dependency{"a": {Strict: true}}
	g, err := Build([]*model.Action{a, b})
	require.NoError(t, err)

	edge, ok := g.Edge("b", "a")
	require.True(t, ok)
	assert.True(t, edge.Strict)

	_, ok = g.Edge("a", "b")
	assert.False(t, ok)
}
