package world

import (
	"fmt"
	"log"
	"sync"

	"github.com/annel0/voxelcore/internal/world/block"
)

// Chunk представляет столбец мира размером 16x256x16 блоков
type Chunk struct {
	originX int32
	originZ int32

	// mu защищает сетку блоков. Воркеры меширования берут его на чтение,
	// генератор и SetBlock на запись.
	mu     sync.RWMutex
	blocks Grid

	// linkMu защищает ссылки на соседей отдельно от сетки, чтобы связывание
	// с главного потока не ждало генерацию.
	linkMu    sync.RWMutex
	neighbors [4]Key
	linked    [4]bool

	// Состояние меша принадлежит главному потоку
	meshMu  sync.RWMutex
	mesh    *MeshData
	meshSeq uint64
}

// NewChunk создаёт новый пустой чанк с началом в мировых координатах (originX, originZ)
func NewChunk(originX, originZ int32) *Chunk {
	return &Chunk{originX: originX, originZ: originZ}
}

// Key возвращает упакованный ключ чанка
func (c *Chunk) Key() Key {
	return PackKey(c.originX, c.originZ)
}

// Origin возвращает мировые координаты угла чанка
func (c *Chunk) Origin() (x, z int32) {
	return c.originX, c.originZ
}

// GetBlock возвращает тип блока по локальным координатам
func (c *Chunk) GetBlock(x, y, z int) (block.Type, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, err := c.blocks.Get(x, y, z)
	if err != nil {
		return t, fmt.Errorf("chunk %s: %w", c.Key(), err)
	}
	return t, nil
}

// MustGetBlock как GetBlock, но паникует на неверных координатах
func (c *Chunk) MustGetBlock(x, y, z int) block.Type {
	t, err := c.GetBlock(x, y, z)
	if err != nil {
		log.Panicf("MustGetBlock: %v", err)
	}
	return t
}

// SetBlock записывает тип блока по локальным координатам
func (c *Chunk) SetBlock(x, y, z int, t block.Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.blocks.Set(x, y, z, t); err != nil {
		return fmt.Errorf("chunk %s: %w", c.Key(), err)
	}
	return nil
}

// Load атомарно заменяет сетку чанка готовой сеткой
func (c *Chunk) Load(g *Grid) {
	c.mu.Lock()
	c.blocks = *g
	c.mu.Unlock()
}

// Snapshot возвращает копию сетки, снятую под блокировкой на чтение
func (c *Chunk) Snapshot() *Grid {
	g := new(Grid)
	c.mu.RLock()
	*g = c.blocks
	c.mu.RUnlock()
	return g
}

// boundarySlab копирует крайний слой чанка, обращённый в сторону side.
// Результат индексируется как [y*SizeZ+z] для X-граней и [y*SizeX+x] для Z-граней.
func (c *Chunk) boundarySlab(side Direction) []block.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slab := make([]block.Type, 0, SizeY*SizeX)
	for y := 0; y < SizeY; y++ {
		for i := 0; i < SizeX; i++ {
			switch side {
			case XPos:
				slab = append(slab, c.blocks.At(SizeX-1, y, i))
			case XNeg:
				slab = append(slab, c.blocks.At(0, y, i))
			case ZPos:
				slab = append(slab, c.blocks.At(i, y, SizeZ-1))
			case ZNeg:
				slab = append(slab, c.blocks.At(i, y, 0))
			}
		}
	}
	return slab
}

// LinkNeighbor симметрично связывает два чанка: other становится соседом c по
// направлению dir, а c соседом other по противоположному направлению.
// Вертикальные направления игнорируются.
func (c *Chunk) LinkNeighbor(other *Chunk, dir Direction) {
	if other == nil || other == c || !dir.IsLateral() {
		return
	}
	c.setNeighbor(dir, other.Key())
	other.setNeighbor(dir.Opposite(), c.Key())
}

func (c *Chunk) setNeighbor(dir Direction, k Key) {
	c.linkMu.Lock()
	i := lateralIndex(dir)
	c.neighbors[i] = k
	c.linked[i] = true
	c.linkMu.Unlock()
}

// Neighbor возвращает ключ соседа по направлению, если связь установлена
func (c *Chunk) Neighbor(dir Direction) (Key, bool) {
	if !dir.IsLateral() {
		return 0, false
	}
	c.linkMu.RLock()
	defer c.linkMu.RUnlock()
	i := lateralIndex(dir)
	return c.neighbors[i], c.linked[i]
}

// SetMesh сохраняет готовый меш как резидентный
func (c *Chunk) SetMesh(m *MeshData) {
	c.meshMu.Lock()
	c.mesh = m
	c.meshMu.Unlock()
}

// ReleaseMesh освобождает резидентный меш
func (c *Chunk) ReleaseMesh() {
	c.SetMesh(nil)
}

// Mesh возвращает резидентный меш или nil
func (c *Chunk) Mesh() *MeshData {
	c.meshMu.RLock()
	defer c.meshMu.RUnlock()
	return c.mesh
}

// HasMesh сообщает, есть ли у чанка резидентный меш
func (c *Chunk) HasMesh() bool {
	return c.Mesh() != nil
}

// NextMeshSeq увеличивает счётчик поколений меша и возвращает новое значение
func (c *Chunk) NextMeshSeq() uint64 {
	c.meshMu.Lock()
	defer c.meshMu.Unlock()
	c.meshSeq++
	return c.meshSeq
}

// MeshSeq возвращает номер последнего запрошенного поколения меша
func (c *Chunk) MeshSeq() uint64 {
	c.meshMu.RLock()
	defer c.meshMu.RUnlock()
	return c.meshSeq
}
