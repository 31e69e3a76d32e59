package wipe

import (
	"sync"
)

// BufferPool управляет пулом буферов записи, сгруппированных по размеру.
// Блоки проходов крупные (1–8 МиБ), переиспользование заметно снижает
// давление на сборщик мусора.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var globalBufferPool = &BufferPool{
	pools: make(map[int]*sync.Pool),
}

// GetBuffer получает буфер из пула или создает новый
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	return globalBufferPool.getBuffer(size)
}

// PutBuffer возвращает буфер в пул. Содержимое обнуляется:
// в буфере мог остаться сгенерированный паттерн.
func PutBuffer(buf []byte) {
	if len(buf) == 0 {
		return
	}
	globalBufferPool.putBuffer(buf)
}

func (bp *BufferPool) getBuffer(size int) []byte {
	poolSize := bp.poolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size]
}

func (bp *BufferPool) putBuffer(buf []byte) {
	capacity := cap(buf)
	poolSize := bp.poolSize(capacity)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if exists {
		full := buf[:capacity]
		for i := range full {
			full[i] = 0
		}
		pool.Put(full)
	}
}

// poolSize подбирает класс размера для буфера
func (bp *BufferPool) poolSize(size int) int {
	sizes := []int{4096, 65536, 1048576, 4194304, 8388608, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	// Больше максимального класса — округляем до 4KB
	return ((size + 4095) / 4096) * 4096
}
