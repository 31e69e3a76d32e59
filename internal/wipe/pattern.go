package wipe

import (
	"crypto/rand"
	"fmt"
)

// GenerateBlock генерирует блок данных для прохода.
// Детерминированные паттерны при одинаковых аргументах дают байт-в-байт
// одинаковый результат. Случайный паттерн генерируется заново на каждый
// вызов: повторное использование случайного блока сделало бы проход
// уязвимым для словарного сопоставления.
func GenerateBlock(spec PassSpec, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("некорректный размер блока: %d", size)
	}

	buf := make([]byte, size)
	if err := FillBlock(spec, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// FillBlock заполняет существующий буфер паттерном прохода.
// Отдельная функция, чтобы горячий путь записи работал с пулом буферов.
func FillBlock(spec PassSpec, buf []byte) error {
	switch spec.Kind {
	case PatternZeros:
		for i := range buf {
			buf[i] = 0x00
		}
		return nil

	case PatternOnes:
		for i := range buf {
			buf[i] = 0xFF
		}
		return nil

	case PatternFixed:
		if len(spec.Seq) == 0 {
			return fmt.Errorf("фиксированный паттерн без последовательности (проход %d)", spec.Number)
		}
		for i := range buf {
			buf[i] = spec.Seq[i%len(spec.Seq)]
		}
		return nil

	case PatternRandom:
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("ошибка генерации случайных данных: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("неизвестный тип паттерна: %d", spec.Kind)
	}
}
