package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testMapping() map[string][]string {
	return map[string][]string{
		"earrings":  {"col-earrings", "col-jewelry"},
		"necklaces": {"col-necklaces", "col-jewelry"},
		"bags":      {"col-bags"},
	}
}

func TestComputeDeltaAddsMissingMemberships(t *testing.T) {
	t.Parallel()

	rules := NewRules(testMapping())
	delta, mapped := rules.ComputeDelta("earrings", nil)
	require.True(t, mapped)
	require.Equal(t, []string{"col-earrings", "col-jewelry"}, delta.Add)
	require.Empty(t, delta.Remove)
}

func TestComputeDeltaRemovesStaleManagedMemberships(t *testing.T) {
	t.Parallel()

	// The product moved from bags to earrings; the bags membership is
	// managed and stale, the curated one must survive.
	rules := NewRules(testMapping())
	delta, mapped := rules.ComputeDelta("earrings", []string{"col-bags", "col-jewelry", "col-hand-picked"})
	require.True(t, mapped)
	require.Equal(t, []string{"col-earrings"}, delta.Add)
	require.Equal(t, []string{"col-bags"}, delta.Remove)
}

func TestComputeDeltaUnmappedCategory(t *testing.T) {
	t.Parallel()

	rules := NewRules(testMapping())
	delta, mapped := rules.ComputeDelta("hats", []string{"col-bags"})
	require.False(t, mapped)
	require.True(t, delta.Empty())
}

func TestComputeDeltaIdempotent(t *testing.T) {
	t.Parallel()

	rules := NewRules(testMapping())
	current := []string{"col-bags", "col-hand-picked"}

	first, mapped := rules.ComputeDelta("necklaces", current)
	require.True(t, mapped)
	require.False(t, first.Empty())

	// Apply the first delta, then recompute: nothing left to do.
	applied := applyDelta(current, first)
	second, mapped := rules.ComputeDelta("necklaces", applied)
	require.True(t, mapped)
	require.True(t, second.Empty())
}

func TestNewRulesDeduplicatesTargets(t *testing.T) {
	t.Parallel()

	rules := NewRules(map[string][]string{"rings": {"col-rings", "col-rings", "col-jewelry"}})
	desired, mapped := rules.Desired("rings")
	require.True(t, mapped)
	require.Equal(t, []string{"col-jewelry", "col-rings"}, desired)
}

func applyDelta(current []string, delta Delta) []string {
	removed := make(map[string]struct{}, len(delta.Remove))
	for _, id := range delta.Remove {
		removed[id] = struct{}{}
	}

	var next []string
	for _, id := range current {
		if _, ok := removed[id]; !ok {
			next = append(next, id)
		}
	}
	return append(next, delta.Add...)
}
