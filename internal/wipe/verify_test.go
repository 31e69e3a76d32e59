package wipe

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securewipe/internal/logging"
)

func wipedTarget(t *testing.T, size int, spec PassSpec) Target {
	t.Helper()
	target := newTestTarget(t, size)
	w := &DeviceWriter{BlockSize: 4096, Logger: logging.Nop()}
	_, err := w.WritePass(context.Background(), target, spec, 0, 0, nil, nil)
	require.NoError(t, err)
	return target
}

func TestVerifyDeviceMatch(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternZeros}
	target := wipedTarget(t, 64*1024, spec)

	v := &Verifier{Samples: 10, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, 10, res.SampledBlocks)
	assert.Empty(t, res.Mismatches)
}

func TestVerifyDeviceFixedPattern(t *testing.T) {
	// паттерн начинается заново в каждом блоке, смещение выборки не влияет
	spec := PassSpec{Number: 7, Kind: PatternFixed, Seq: []byte{0x92, 0x49, 0x24}}
	target := wipedTarget(t, 16*4096, spec)

	v := &Verifier{Samples: 16, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerifyDeviceMismatch(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternZeros}
	target := wipedTarget(t, 16*4096, spec)

	// портим один байт в середине
	f, err := os.OpenFile(target.Path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0x5A}, 8*4096+17)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	v := &Verifier{Samples: 16, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, []uint64{8 * 4096}, res.Mismatches)
}

func TestVerifyDeviceRandomReadabilityOnly(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternRandom}
	target := wipedTarget(t, 32*1024, spec)

	v := &Verifier{Samples: 8, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.NotEmpty(t, res.Note)
	assert.Equal(t, 8, res.SampledBlocks)
}

func TestVerifyDeviceSamplesCoverTail(t *testing.T) {
	// блоков больше, чем выборок, но меньше чем вдвое: выборки обязаны
	// накрывать и хвост устройства, а не только его начало
	spec := PassSpec{Number: 1, Kind: PatternZeros}
	target := wipedTarget(t, 199*4096, spec)

	f, err := os.OpenFile(target.Path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0x5A}, 150*4096)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	v := &Verifier{Samples: 100, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.False(t, res.Verified, "порча на 75%% адресного пространства должна попадать в выборку")
}

func TestVerifyDeviceLastBlockSampled(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternZeros}
	for _, totalBlocks := range []int{7, 100, 101, 199, 256} {
		target := wipedTarget(t, totalBlocks*4096, spec)

		// портим последний блок
		f, err := os.OpenFile(target.Path, os.O_WRONLY, 0)
		require.NoError(t, err)
		_, err = f.WriteAt([]byte{0x5A}, int64(totalBlocks-1)*4096)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		v := &Verifier{Samples: 100, BlockSize: 4096, Logger: logging.Nop()}
		res, err := v.VerifyDevice(context.Background(), target, spec)
		require.NoError(t, err)
		assert.False(t, res.Verified, "хвост не проверен при %d блоках", totalBlocks)
	}
}

func TestVerifyDeviceSamplesCappedByBlocks(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternZeros}
	target := wipedTarget(t, 4*4096, spec)

	v := &Verifier{Samples: 100, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.Equal(t, 4, res.SampledBlocks)
}

func TestVerifyDevicePartialLastBlock(t *testing.T) {
	spec := PassSpec{Number: 1, Kind: PatternOnes}
	target := wipedTarget(t, 4096*2+300, spec)

	v := &Verifier{Samples: 3, BlockSize: 4096, Logger: logging.Nop()}
	res, err := v.VerifyDevice(context.Background(), target, spec)
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerifyScratchRemovedGone(t *testing.T) {
	v := &Verifier{Logger: logging.Nop()}
	res, err := v.VerifyScratchRemoved(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerifyScratchRemovedLeftovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filler_0000.bin"), bytes.Repeat([]byte{0}, 16), 0600))

	v := &Verifier{Logger: logging.Nop()}
	res, err := v.VerifyScratchRemoved(dir)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.NotEmpty(t, res.Note)
}
