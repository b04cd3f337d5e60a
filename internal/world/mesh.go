package world

import (
	"github.com/annel0/voxelcore/internal/world/block"
)

// Vertex одна вершина меша: позиция (w=1), текстурные координаты и нормаль (w=0)
type Vertex struct {
	Pos    [4]float32
	UV     [4]float32
	Normal [4]float32
}

// FloatsPerVertex количество float32 на вершину в чередующемся буфере
const FloatsPerVertex = 12

// MeshData геометрия чанка: сначала непрозрачная часть, затем прозрачная.
// Индексы прозрачной части уже смещены на число непрозрачных вершин.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32

	OpaqueVertexCount     int
	OpaqueIndexCount      int
	TransparentIndexCount int
}

// Range непрерывный диапазон индексного буфера для отдельного вызова отрисовки
type Range struct {
	First int
	Count int
}

// OpaqueRange диапазон индексов непрозрачной части
func (m *MeshData) OpaqueRange() Range {
	return Range{First: 0, Count: m.OpaqueIndexCount}
}

// TransparentRange диапазон индексов прозрачной части
func (m *MeshData) TransparentRange() Range {
	return Range{First: m.OpaqueIndexCount, Count: m.TransparentIndexCount}
}

// IsEmpty сообщает, что в меше нет ни одной грани
func (m *MeshData) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Interleaved возвращает вершины одним плоским буфером для загрузки на GPU
func (m *MeshData) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		out = append(out, v.Pos[:]...)
		out = append(out, v.UV[:]...)
		out = append(out, v.Normal[:]...)
	}
	return out
}

// ChunkSource разрешает ключи соседей в чанки
type ChunkSource interface {
	ChunkByKey(k Key) (*Chunk, bool)
}

// Углы граней единичного куба в порядке обхода вершин
var faceCorners = [6][4][3]float32{
	XPos: {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	XNeg: {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	YPos: {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	YNeg: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	ZPos: {{0, 1, 1}, {0, 0, 1}, {1, 0, 1}, {1, 1, 1}},
	ZNeg: {{1, 1, 0}, {1, 0, 0}, {0, 0, 0}, {0, 1, 0}},
}

var (
	uvSide = [4][2]float32{{0, 0}, {block.AtlasCell, 0}, {block.AtlasCell, block.AtlasCell}, {0, block.AtlasCell}}
	uvZ    = [4][2]float32{{0, block.AtlasCell}, {0, 0}, {block.AtlasCell, 0}, {block.AtlasCell, block.AtlasCell}}
)

type meshBuffer struct {
	vertices []Vertex
	indices  []uint32
}

func (b *meshBuffer) addFace(t block.Type, dir Direction, wx, wy, wz float32) {
	base := uint32(len(b.vertices))
	origin := block.AtlasOf(t, int(dir))
	deltas := uvSide
	if dir == ZPos || dir == ZNeg {
		deltas = uvZ
	}
	n := dir.Offset()
	normal := [4]float32{float32(n.X), float32(n.Y), float32(n.Z), 0}

	for i, c := range faceCorners[dir] {
		b.vertices = append(b.vertices, Vertex{
			Pos:    [4]float32{wx + c[0], wy + c[1], wz + c[2], 1},
			UV:     [4]float32{origin[0] + deltas[i][0], origin[1] + deltas[i][1], 0, 0},
			Normal: normal,
		})
	}
	b.indices = append(b.indices, base, base+1, base+2, base, base+2, base+3)
}

// meshInput снимок данных, достаточный для построения меша без удержания блокировок
type meshInput struct {
	blocks *Grid
	slabs  [4][]block.Type
}

func (in *meshInput) adjacent(x, y, z int, dir Direction) block.Type {
	o := dir.Offset()
	nx, ny, nz := x+o.X, y+o.Y, z+o.Z
	if InBounds(nx, ny, nz) {
		return in.blocks.At(nx, ny, nz)
	}
	if !dir.IsLateral() {
		return block.Empty
	}
	slab := in.slabs[lateralIndex(dir)]
	if slab == nil {
		return block.Empty
	}
	switch dir {
	case XPos, XNeg:
		return slab[ny*SizeZ+nz]
	default:
		return slab[ny*SizeX+nx]
	}
}

// snapshot копирует сетку чанка и граничные слои соседей. Блокировки берутся
// по одной, поэтому одновременное меширование соседей не может зациклиться.
func (c *Chunk) snapshot(src ChunkSource) *meshInput {
	in := &meshInput{blocks: c.Snapshot()}
	if src == nil {
		return in
	}
	for _, dir := range Lateral {
		k, ok := c.Neighbor(dir)
		if !ok {
			continue
		}
		n, ok := src.ChunkByKey(k)
		if !ok {
			continue
		}
		in.slabs[lateralIndex(dir)] = n.boundarySlab(dir.Opposite())
	}
	return in
}

// BuildMesh строит меш чанка с отсечением скрытых граней. Непрозрачные блоки
// дают грань против EMPTY и WATER, вода только против EMPTY. Отсутствующий
// сосед считается пустым.
func (c *Chunk) BuildMesh(src ChunkSource) *MeshData {
	in := c.snapshot(src)
	ox, oz := float32(c.originX), float32(c.originZ)

	var opaque, transparent meshBuffer
	for x := 0; x < SizeX; x++ {
		for y := 0; y < SizeY; y++ {
			for z := 0; z < SizeZ; z++ {
				t := in.blocks.At(x, y, z)
				if t == block.Empty {
					continue
				}
				wx, wy, wz := ox+float32(x), float32(y), oz+float32(z)
				for _, dir := range Directions {
					adj := in.adjacent(x, y, z, dir)
					if t == block.Water {
						if adj == block.Empty {
							transparent.addFace(t, dir, wx, wy, wz)
						}
						continue
					}
					if adj.IsSeeThrough() {
						opaque.addFace(t, dir, wx, wy, wz)
					}
				}
			}
		}
	}

	return concat(&opaque, &transparent)
}

func concat(opaque, transparent *meshBuffer) *MeshData {
	m := &MeshData{
		Vertices:              make([]Vertex, 0, len(opaque.vertices)+len(transparent.vertices)),
		Indices:               make([]uint32, 0, len(opaque.indices)+len(transparent.indices)),
		OpaqueVertexCount:     len(opaque.vertices),
		OpaqueIndexCount:      len(opaque.indices),
		TransparentIndexCount: len(transparent.indices),
	}
	m.Vertices = append(m.Vertices, opaque.vertices...)
	m.Vertices = append(m.Vertices, transparent.vertices...)
	m.Indices = append(m.Indices, opaque.indices...)
	shift := uint32(len(opaque.vertices))
	for _, i := range transparent.indices {
		m.Indices = append(m.Indices, i+shift)
	}
	return m
}
