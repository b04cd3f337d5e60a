package terrain

import (
	"sync"

	"github.com/annel0/voxelcore/internal/world"
)

// RenderBackend внешний получатель мешей (загрузка буферов на GPU).
// Методы вызываются только из главного потока в DrainCompletedWork и TryExpand.
type RenderBackend interface {
	Upload(key world.Key, mesh *world.MeshData)
	Release(key world.Key)
}

// NullBackend бэкенд без отрисовки: только считает загрузки и освобождения
type NullBackend struct {
	mu       sync.Mutex
	uploads  int
	releases int
	vertices map[world.Key]int
}

func (b *NullBackend) Upload(key world.Key, mesh *world.MeshData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.vertices == nil {
		b.vertices = make(map[world.Key]int)
	}
	b.uploads++
	b.vertices[key] = len(mesh.Vertices)
}

func (b *NullBackend) Release(key world.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releases++
	delete(b.vertices, key)
}

// Uploads число загрузок с момента создания
func (b *NullBackend) Uploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}

// Releases число освобождений с момента создания
func (b *NullBackend) Releases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releases
}

// Resident число чанков, чей меш сейчас загружен
func (b *NullBackend) Resident() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.vertices)
}

// Vertices общее число вершин загруженных мешей
func (b *NullBackend) Vertices() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.vertices {
		n += v
	}
	return n
}
