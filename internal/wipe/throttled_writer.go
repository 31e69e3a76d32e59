package wipe

import (
	"io"
	"os"
	"sync"
	"time"
)

// ThrottledWriter ограничивает скорость записи на устройство (thread-safe).
// Пишет по смещению, чтобы проход мог возобновляться с произвольного блока.
type ThrottledWriter struct {
	file         *os.File
	maxSpeedMBps float64
	lastWrite    time.Time
	mu           sync.Mutex
	closed       bool
}

// NewThrottledWriter создает writer с ограничением скорости.
// maxSpeedMBps <= 0 отключает ограничение.
func NewThrottledWriter(file *os.File, maxSpeedMBps float64) *ThrottledWriter {
	return &ThrottledWriter{
		file:         file,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
	}
}

// WriteAt записывает данные по смещению с учётом ограничения скорости
func (tw *ThrottledWriter) WriteAt(data []byte, off int64) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}
	if len(data) == 0 {
		return 0, nil
	}

	if tw.maxSpeedMBps > 0 {
		bytesPerSec := tw.maxSpeedMBps * 1024 * 1024
		expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
		actual := time.Since(tw.lastWrite)
		if actual < expected {
			time.Sleep(expected - actual)
		}
	}

	n, err := tw.file.WriteAt(data, off)
	tw.lastWrite = time.Now()
	return n, err
}

// Sync синхронизирует данные на устройство
func (tw *ThrottledWriter) Sync() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return io.ErrClosedPipe
	}
	return tw.file.Sync()
}

// Close закрывает файл устройства
func (tw *ThrottledWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true
	return tw.file.Close()
}
