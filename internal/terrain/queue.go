package terrain

import (
	"sync"
	"time"

	"github.com/annel0/voxelcore/internal/world"
)

// queue список результатов под мьютексом: воркеры только добавляют,
// главный поток забирает всё разом раз в тик
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
}

// Drain забирает накопленные элементы и очищает очередь
func (q *queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// blockResult зона, чьи чанки заполнены генератором
type blockResult struct {
	zone   world.Key
	chunks []*world.Chunk
	batch  string
	took   time.Duration
	err    error
}

// meshResult готовый меш чанка. tick номер тика, в котором задача была отправлена.
type meshResult struct {
	chunk *world.Chunk
	mesh  *world.MeshData
	seq   uint64
	tick  uint64
	took  time.Duration
	err   error
}
