package wipe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBlockZeros(t *testing.T) {
	block, err := GenerateBlock(PassSpec{Kind: PatternZeros}, 4096)
	require.NoError(t, err)
	require.Len(t, block, 4096)
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 4096), block)
}

func TestGenerateBlockOnes(t *testing.T) {
	block, err := GenerateBlock(PassSpec{Kind: PatternOnes}, 512)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 512), block)
}

func TestGenerateBlockFixedCycles(t *testing.T) {
	seq := []byte{0x92, 0x49, 0x24}
	block, err := GenerateBlock(PassSpec{Kind: PatternFixed, Seq: seq}, 8)
	require.NoError(t, err)
	// последовательность зацикливается, последний повтор может быть неполным
	assert.Equal(t, []byte{0x92, 0x49, 0x24, 0x92, 0x49, 0x24, 0x92, 0x49}, block)
}

func TestGenerateBlockFixedDeterministic(t *testing.T) {
	spec := PassSpec{Kind: PatternFixed, Seq: []byte{0x55}}
	a, err := GenerateBlock(spec, 1024)
	require.NoError(t, err)
	b, err := GenerateBlock(spec, 1024)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateBlockRandomNotReproducible(t *testing.T) {
	spec := PassSpec{Kind: PatternRandom}
	a, err := GenerateBlock(spec, 4096)
	require.NoError(t, err)
	b, err := GenerateBlock(spec, 4096)
	require.NoError(t, err)
	require.Len(t, a, 4096)
	assert.NotEqual(t, a, b)
}

func TestGenerateBlockFixedEmptySeq(t *testing.T) {
	_, err := GenerateBlock(PassSpec{Kind: PatternFixed}, 64)
	assert.Error(t, err)
}

func TestFillBlockMatchesGenerate(t *testing.T) {
	spec := PassSpec{Kind: PatternFixed, Seq: []byte{0xDB, 0x6D, 0xB6}}
	want, err := GenerateBlock(spec, 777)
	require.NoError(t, err)

	buf := make([]byte, 777)
	require.NoError(t, FillBlock(spec, buf))
	assert.Equal(t, want, buf)
}
