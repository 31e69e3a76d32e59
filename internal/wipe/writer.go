package wipe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"securewipe/internal/logging"
)

const (
	mib = 1024 * 1024
	gib = 1024 * mib
)

// ErrInterrupted — кооперативная отмена. Не ошибка записи, а отдельный
// терминальный исход: уже записанные блоки не откатываются.
var ErrInterrupted = errors.New("операция отменена пользователем")

// Target — адресуемая цель записи: устройство или файл с известным размером
type Target struct {
	Path      string
	SizeBytes uint64
}

// ProgressFunc вызывается с ограниченной частотой по ходу прохода
type ProgressFunc func(blocksWritten, totalBlocks uint64, message string)

// BlockSizeFor подбирает размер блока по ёмкости цели.
// Это компромисс пропускная способность/память, не требование корректности,
// но в пределах одного прохода размер блока меняться не должен.
func BlockSizeFor(sizeBytes uint64) int {
	switch {
	case sizeBytes >= 100*gib:
		return 8 * mib
	case sizeBytes < 10*gib:
		return 1 * mib
	default:
		return 4 * mib
	}
}

// DeviceWriter пишет паттерны проходов по всему адресному пространству цели
type DeviceWriter struct {
	BlockSize     int // 0 = подбор по ёмкости
	MaxSpeedMBps  float64
	ProgressEvery int // блоков между вызовами onProgress
	Segments      int // интервалов синхронизации на проход
	Logger        *logging.AuditLogger
}

func (w *DeviceWriter) blockSize(target Target) int {
	if w.BlockSize > 0 {
		return w.BlockSize
	}
	return BlockSizeFor(target.SizeBytes)
}

// TotalBlocks возвращает число блоков прохода для цели
func (w *DeviceWriter) TotalBlocks(target Target) uint64 {
	bs := uint64(w.blockSize(target))
	return (target.SizeBytes + bs - 1) / bs
}

// WritePass выполняет один проход затирания с блока startBlock до endBlock
// (endBlock == 0 — до конца цели). Возвращает абсолютный счётчик записанных
// блоков от начала прохода, чтобы при эскалации привилегий оркестратор мог
// продолжить с первого незаписанного блока, не перезаписывая готовые.
func (w *DeviceWriter) WritePass(ctx context.Context, target Target, spec PassSpec, startBlock, endBlock uint64, onProgress ProgressFunc, isCancelled func() bool) (uint64, error) {
	if target.SizeBytes == 0 {
		return 0, fmt.Errorf("размер цели %s неизвестен", target.Path)
	}

	blockSize := w.blockSize(target)
	totalBlocks := w.TotalBlocks(target)
	if endBlock == 0 || endBlock > totalBlocks {
		endBlock = totalBlocks
	}
	if startBlock >= endBlock {
		return startBlock, nil
	}

	progressEvery := uint64(w.ProgressEvery)
	if progressEvery == 0 {
		progressEvery = 32
	}

	segments := uint64(w.Segments)
	if segments == 0 {
		segments = 10
	}
	syncEvery := totalBlocks / segments
	if syncEvery == 0 {
		syncEvery = 1
	}

	f, err := os.OpenFile(target.Path, os.O_WRONLY, 0)
	if err != nil {
		return startBlock, fmt.Errorf("ошибка открытия %s: %w", target.Path, err)
	}

	tw := NewThrottledWriter(f, w.MaxSpeedMBps)
	defer tw.Close()

	buf := GetBuffer(blockSize)
	defer PutBuffer(buf)

	for blk := startBlock; blk < endBlock; blk++ {
		select {
		case <-ctx.Done():
			return blk, ErrInterrupted
		default:
		}
		if isCancelled != nil && isCancelled() {
			return blk, ErrInterrupted
		}

		offset := blk * uint64(blockSize)
		length := uint64(blockSize)
		if offset+length > target.SizeBytes {
			length = target.SizeBytes - offset
		}

		b := buf[:length]
		// Случайный блок генерируется заново на каждой итерации,
		// детерминированные перезаписываются тем же содержимым.
		if err := FillBlock(spec, b); err != nil {
			return blk, err
		}

		off := 0
		for off < len(b) {
			n, err := tw.WriteAt(b[off:], int64(offset)+int64(off))
			if n > 0 {
				off += n
			}
			if err != nil {
				return blk, fmt.Errorf("ошибка записи блока %d (%s): %w", blk, target.Path, err)
			}
			if n == 0 {
				return blk, fmt.Errorf("запись блока %d вернула 0 байт без ошибки", blk)
			}
		}

		done := blk + 1
		if done%syncEvery == 0 {
			if err := tw.Sync(); err != nil {
				return done, fmt.Errorf("ошибка синхронизации %s: %w", target.Path, err)
			}
		}

		if done%progressEvery == 0 || done == endBlock {
			if onProgress != nil {
				onProgress(done, totalBlocks, fmt.Sprintf("проход %d: паттерн %s", spec.Number, spec.Kind))
			}
		}
	}

	if err := tw.Sync(); err != nil {
		return endBlock, fmt.Errorf("ошибка финальной синхронизации %s: %w", target.Path, err)
	}

	return endBlock, nil
}
