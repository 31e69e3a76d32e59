package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveQuick(t *testing.T) {
	m, err := Resolve("quick")
	require.NoError(t, err)
	require.Len(t, m.Passes, 1)
	assert.Equal(t, PatternZeros, m.Passes[0].Kind)
	assert.Equal(t, 1, m.Passes[0].Number)
}

func TestResolveRandom(t *testing.T) {
	m, err := Resolve("random")
	require.NoError(t, err)
	require.Len(t, m.Passes, 1)
	assert.Equal(t, PatternRandom, m.Passes[0].Kind)
}

func TestResolveDoD(t *testing.T) {
	m, err := Resolve("dod")
	require.NoError(t, err)
	require.Len(t, m.Passes, 3)

	assert.Equal(t, PatternZeros, m.Passes[0].Kind)
	assert.Equal(t, PatternOnes, m.Passes[1].Kind)
	assert.Equal(t, PatternRandom, m.Passes[2].Kind)

	for i, p := range m.Passes {
		assert.Equal(t, i+1, p.Number)
	}
}

func TestResolveGutmann(t *testing.T) {
	m, err := Resolve("gutmann")
	require.NoError(t, err)
	require.Len(t, m.Passes, 35)

	for n := 1; n <= 4; n++ {
		assert.Equal(t, PatternRandom, m.Passes[n-1].Kind, "проход %d", n)
	}
	for n := 32; n <= 35; n++ {
		assert.Equal(t, PatternRandom, m.Passes[n-1].Kind, "проход %d", n)
	}
	for n := 5; n <= 31; n++ {
		p := m.Passes[n-1]
		assert.Equal(t, PatternFixed, p.Kind, "проход %d", n)
		assert.Equal(t, gutmannTable[(n-5)%len(gutmannTable)], p.Seq, "проход %d", n)
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("dban")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, kind := range []PatternKind{PatternZeros, PatternOnes, PatternFixed, PatternRandom} {
		parsed, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseKind("noise")
	assert.Error(t, err)
}

func TestDeterministic(t *testing.T) {
	assert.True(t, PatternZeros.Deterministic())
	assert.True(t, PatternOnes.Deterministic())
	assert.True(t, PatternFixed.Deterministic())
	assert.False(t, PatternRandom.Deterministic())
}

func TestMethodIDsMatchCatalog(t *testing.T) {
	for _, id := range MethodIDs() {
		m, err := Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, id, m.ID)
		assert.NotEmpty(t, m.Passes)
	}
}
