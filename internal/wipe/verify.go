package wipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"securewipe/internal/logging"
)

// Verifier выборочно проверяет результат затирания.
// Проверка всегда сверяется с паттерном ПОСЛЕДНЕГО прохода: содержимое
// предыдущих проходов уже перезаписано и восстановлению не подлежит.
type Verifier struct {
	Samples   int // максимум проверяемых блоков
	BlockSize int // 0 = подбор по ёмкости, как у writer
	Logger    *logging.AuditLogger
}

// VerifyResult — результат выборочной проверки
type VerifyResult struct {
	Verified      bool
	SampledBlocks int
	Mismatches    []uint64 // смещения несовпавших блоков
	Note          string
}

// VerifyDevice читает ограниченное число блоков, распределённых по всему
// адресному пространству, и сверяет их с ожидаемым паттерном.
//
// Для детерминированных паттернов требуется байт-в-байт совпадение каждого
// блока; одно расхождение — проверка не пройдена. Для случайного паттерна
// содержимое сверить не с чем (оно нигде не сохранялось): проверяется
// только читаемость. Это известное ограничение верификации случайных
// проходов, а не пропущенная проверка.
func (v *Verifier) VerifyDevice(ctx context.Context, target Target, spec PassSpec) (*VerifyResult, error) {
	blockSize := v.BlockSize
	if blockSize <= 0 {
		blockSize = BlockSizeFor(target.SizeBytes)
	}

	totalBlocks := (target.SizeBytes + uint64(blockSize) - 1) / uint64(blockSize)
	if totalBlocks == 0 {
		return nil, fmt.Errorf("размер цели %s неизвестен", target.Path)
	}

	samples := uint64(v.Samples)
	if samples == 0 {
		samples = 100
	}
	if samples > totalBlocks {
		samples = totalBlocks
	}

	f, err := os.Open(target.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия %s для проверки: %w", target.Path, err)
	}
	defer f.Close()

	result := &VerifyResult{Verified: true}
	if spec.Kind == PatternRandom {
		result.Note = "случайный паттерн: проверена только читаемость, сверка содержимого невозможна"
	}

	// Ожидаемый блок один и тот же для всех выборок полного размера:
	// каждый блок прохода начинает паттерн заново.
	var expected []byte
	if spec.Kind.Deterministic() {
		expected, err = GenerateBlock(spec, blockSize)
		if err != nil {
			return nil, err
		}
	}

	buf := GetBuffer(blockSize)
	defer PutBuffer(buf)

	for i := uint64(0); i < samples; i++ {
		select {
		case <-ctx.Done():
			return nil, ErrInterrupted
		default:
		}

		// Пропорциональное распределение по всему адресному пространству:
		// первая выборка — блок 0, последняя — последний блок. При
		// samples <= totalBlocks позиции строго возрастают, повторов нет.
		blk := uint64(0)
		if samples > 1 {
			blk = i * (totalBlocks - 1) / (samples - 1)
		}
		offset := blk * uint64(blockSize)
		length := uint64(blockSize)
		if offset+length > target.SizeBytes {
			length = target.SizeBytes - offset
		}

		b := buf[:length]
		if _, err := f.ReadAt(b, int64(offset)); err != nil && err != io.EOF {
			return nil, fmt.Errorf("ошибка чтения блока %d (%s): %w", blk, target.Path, err)
		}
		result.SampledBlocks++

		if !spec.Kind.Deterministic() {
			continue
		}

		want := expected[:length]
		if !bytes.Equal(b, want) {
			result.Verified = false
			result.Mismatches = append(result.Mismatches, offset)
			if v.Logger != nil {
				v.Logger.Log("WARN", "Блок не совпал с ожидаемым паттерном",
					"device", target.Path, "offset", offset, "pass", spec.Number)
			}
		}
	}

	return result, nil
}

// VerifyScratchRemoved — проверка для режима затирания свободного места:
// подтверждает, что временные файлы-заполнители удалены и в рабочей
// директории не осталось данных.
func (v *Verifier) VerifyScratchRemoved(scratchDir string) (*VerifyResult, error) {
	entries, err := os.ReadDir(scratchDir)
	if os.IsNotExist(err) {
		return &VerifyResult{Verified: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки рабочей директории %s: %w", scratchDir, err)
	}

	result := &VerifyResult{Verified: len(entries) == 0}
	if !result.Verified {
		result.Note = fmt.Sprintf("в рабочей директории осталось %d файлов", len(entries))
	}
	return result, nil
}
