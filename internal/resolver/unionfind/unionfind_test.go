package unionfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPair_Transitivity(t *testing.T) {
	u := New()
	u.AddPair("1", "2")
	u.AddPair("2", "3")

	g1, ok := u.GroupOf("1")
	require.True(t, ok)
	g3, ok := u.GroupOf("3")
	require.True(t, ok)
	assert.Equal(t, g1, g3)

	groups := u.Groups()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, groups[g1])
}

func TestAddPair_MergesTwoExistingGroups(t *testing.T) {
	u := New()
	u.AddPair("a", "b")
	u.AddPair("c", "d")
	require.Len(t, u.Groups(), 2)

	u.AddPair("b", "c")
	groups := u.Groups()
	require.Len(t, groups, 1)
	for _, members := range groups {
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, members)
	}
}

func TestAddItem_ThroughAlias(t *testing.T) {
	u := New()
	ga := u.AddPair("a", "b")
	gb := u.AddPair("c", "d")
	survivor := u.Union(ga, gb)
	assert.Equal(t, ga, survivor)

	// Adding to the absorbed group id must land in the canonical group.
	got := u.AddItem(gb, "e")
	assert.Equal(t, ga, got)
	g, ok := u.GroupOf("e")
	require.True(t, ok)
	assert.Equal(t, ga, g)
}

func TestAddItem_ExistingItemMergesGroups(t *testing.T) {
	u := New()
	ga := u.AddPair("a", "b")
	gb := u.AddPair("c", "d")

	// "a" already belongs to ga; adding it to gb unions the two, and the
	// group "a" was already in stays canonical.
	got := u.AddItem(gb, "a")
	assert.Equal(t, ga, got)
	require.Len(t, u.Groups(), 1)
}

func TestUnion_Idempotent(t *testing.T) {
	u := New()
	ga := u.AddPair("a", "b")
	gb := u.AddPair("c", "d")

	first := u.Union(ga, gb)
	second := u.Union(ga, gb)
	third := u.Union(gb, ga)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	require.Len(t, u.Groups(), 1)
}

func TestUnion_TransitiveAliases(t *testing.T) {
	u := New()
	g1 := u.AddPair("a", "b")
	g2 := u.AddPair("c", "d")
	g3 := u.AddPair("e", "f")

	u.Union(g2, g3) // g3 -> g2
	u.Union(g1, g2) // g2 (and transitively g3) -> g1

	// An id aliased two merges ago still resolves to the canonical group.
	got := u.AddItem(g3, "z")
	assert.Equal(t, g1, got)

	groups := u.Groups()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f", "z"}, groups[g1])
}

func TestInvariant_EveryItemInItsGroup(t *testing.T) {
	u := New()
	pairs := [][2]string{{"1", "2"}, {"3", "4"}, {"2", "3"}, {"5", "6"}, {"4", "5"}}
	for _, p := range pairs {
		u.AddPair(p[0], p[1])
	}

	for g, members := range u.Groups() {
		for _, item := range members {
			got, ok := u.GroupOf(item)
			require.True(t, ok)
			assert.Equal(t, g, got)
		}
	}
}
