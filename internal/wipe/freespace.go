package wipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"securewipe/internal/logging"
	"securewipe/internal/system"
)

// FreeSpaceWiper затирает свободное место смонтированной файловой системы:
// заполняет рабочую директорию файлами с паттерном прохода, пока место
// не кончится, затем удаляет их. Запасной режим для целей, где прямая
// запись на устройство невозможна.
type FreeSpaceWiper struct {
	ScratchDirName string
	FileSize       uint64 // размер одного файла-заполнителя
	MaxSpeedMBps   float64
	ProgressEvery  int
	Logger         *logging.AuditLogger
}

const defaultFillerSize = 1 * gib

// ScratchDir возвращает путь рабочей директории на точке монтирования
func (fw *FreeSpaceWiper) ScratchDir(mountPoint string) string {
	name := fw.ScratchDirName
	if name == "" {
		name = ".securewipe_tmp"
	}
	return filepath.Join(mountPoint, name)
}

// WritePass выполняет один проход по свободному месту. ENOSPC — нормальное
// завершение прохода, а не ошибка. Возвращает число записанных байт.
func (fw *FreeSpaceWiper) WritePass(ctx context.Context, mountPoint string, spec PassSpec, onProgress ProgressFunc, isCancelled func() bool) (uint64, error) {
	free, _, err := system.FreeSpace(mountPoint)
	if err != nil {
		return 0, fmt.Errorf("ошибка определения свободного места %s: %w", mountPoint, err)
	}

	scratch := fw.ScratchDir(mountPoint)
	if err := os.MkdirAll(scratch, 0700); err != nil {
		return 0, fmt.Errorf("ошибка создания рабочей директории: %w", err)
	}
	defer os.RemoveAll(scratch)

	fileSize := fw.FileSize
	if fileSize == 0 {
		fileSize = defaultFillerSize
	}

	blockSize := BlockSizeFor(free)
	totalBlocks := (free + uint64(blockSize) - 1) / uint64(blockSize)
	if totalBlocks == 0 {
		totalBlocks = 1
	}

	progressEvery := uint64(fw.ProgressEvery)
	if progressEvery == 0 {
		progressEvery = 32
	}

	var written uint64
	var blocksDone uint64

	// Защита от зацикливания: свободное место обязано уменьшаться.
	const maxFiles = 10000

	for fileIndex := 0; fileIndex < maxFiles; fileIndex++ {
		filename := filepath.Join(scratch, fmt.Sprintf("filler_%04d.bin", fileIndex))

		full, err := fw.writeFiller(ctx, filename, fileSize, spec, blockSize, &written, &blocksDone, totalBlocks, progressEvery, onProgress, isCancelled)
		if err != nil {
			if system.IsDiskFull(err) {
				// Место исчерпано — проход завершён.
				break
			}
			return written, err
		}
		if !full {
			break
		}
	}

	if onProgress != nil {
		onProgress(totalBlocks, totalBlocks, fmt.Sprintf("проход %d: свободное место заполнено", spec.Number))
	}

	// Файлы-заполнители удаляются вместе с рабочей директорией (defer).
	return written, nil
}

// writeFiller пишет один файл-заполнитель. Возвращает full=true, если файл
// записан целиком и место ещё осталось.
func (fw *FreeSpaceWiper) writeFiller(ctx context.Context, filename string, fileSize uint64, spec PassSpec, blockSize int, written, blocksDone *uint64, totalBlocks, progressEvery uint64, onProgress ProgressFunc, isCancelled func() bool) (bool, error) {
	f, err := os.Create(filename)
	if err != nil {
		return false, fmt.Errorf("ошибка создания файла %s: %w", filename, err)
	}
	defer f.Close()

	tw := NewThrottledWriter(f, fw.MaxSpeedMBps)

	buf := GetBuffer(blockSize)
	defer PutBuffer(buf)

	var fileWritten uint64
	for fileWritten < fileSize {
		select {
		case <-ctx.Done():
			return false, ErrInterrupted
		default:
		}
		if isCancelled != nil && isCancelled() {
			return false, ErrInterrupted
		}

		length := uint64(blockSize)
		if fileSize-fileWritten < length {
			length = fileSize - fileWritten
		}

		b := buf[:length]
		if err := FillBlock(spec, b); err != nil {
			return false, err
		}

		off := 0
		for off < len(b) {
			n, werr := tw.WriteAt(b[off:], int64(fileWritten)+int64(off))
			if n > 0 {
				off += n
				*written += uint64(n)
			}
			if werr != nil {
				if system.IsDiskFull(werr) {
					// Сбрасываем то, что успело записаться.
					f.Sync()
					return false, werr
				}
				return false, fmt.Errorf("ошибка записи %s: %w", filename, werr)
			}
			if n == 0 {
				return false, fmt.Errorf("запись %s вернула 0 байт без ошибки", filename)
			}
		}
		fileWritten += length

		*blocksDone++
		if *blocksDone%progressEvery == 0 && onProgress != nil {
			done := *blocksDone
			if done > totalBlocks {
				done = totalBlocks
			}
			onProgress(done, totalBlocks, fmt.Sprintf("проход %d: паттерн %s", spec.Number, spec.Kind))
		}
	}

	if err := tw.Sync(); err != nil {
		if system.IsDiskFull(err) {
			return false, err
		}
		return false, fmt.Errorf("ошибка синхронизации %s: %w", filename, err)
	}

	return true, nil
}
