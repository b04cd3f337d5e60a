package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/world/block"
)

type chunkMap map[Key]*Chunk

func (m chunkMap) ChunkByKey(k Key) (*Chunk, bool) {
	c, ok := m[k]
	return c, ok
}

func fillChunk(c *Chunk, t block.Type) {
	var g Grid
	for i := range g {
		g[i] = t
	}
	c.Load(&g)
}

func faces(m *MeshData) (opaque, transparent int) {
	return m.OpaqueIndexCount / 6, m.TransparentIndexCount / 6
}

func TestBuildMeshEmptyChunk(t *testing.T) {
	m := NewChunk(0, 0).BuildMesh(nil)
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Vertices)
}

func TestBuildMeshSingleBlock(t *testing.T) {
	c := NewChunk(0, 0)
	require.NoError(t, c.SetBlock(5, 5, 5, block.Stone))

	m := c.BuildMesh(chunkMap{})
	assert.Len(t, m.Vertices, 24)
	assert.Len(t, m.Indices, 36)
	assert.Equal(t, 36, m.OpaqueIndexCount)
	assert.Zero(t, m.TransparentIndexCount)

	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices[:6])
	assert.Equal(t, []uint32{4, 5, 6, 4, 6, 7}, m.Indices[6:12])

	for _, v := range m.Vertices {
		assert.Equal(t, float32(1), v.Pos[3])
		assert.Equal(t, float32(0), v.Normal[3])
	}
	assert.Len(t, m.Interleaved(), 24*FloatsPerVertex)
}

func TestBuildMeshWorldSpacePositions(t *testing.T) {
	c := NewChunk(-16, 32)
	require.NoError(t, c.SetBlock(0, 10, 0, block.Dirt))

	m := c.BuildMesh(nil)
	// первая грань XPOS: угол (1,0,1)
	assert.Equal(t, [4]float32{-15, 10, 33, 1}, m.Vertices[0].Pos)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, m.Vertices[0].Normal)
}

func TestBuildMeshHiddenFaces(t *testing.T) {
	c := NewChunk(0, 0)
	for x := 4; x < 7; x++ {
		for y := 4; y < 7; y++ {
			for z := 4; z < 7; z++ {
				require.NoError(t, c.SetBlock(x, y, z, block.Stone))
			}
		}
	}
	opaque, transparent := faces(c.BuildMesh(nil))
	assert.Equal(t, 9*6, opaque, "внутренние грани отсекаются")
	assert.Zero(t, transparent)
}

func TestBuildMeshSolidChunkWithSolidNeighbors(t *testing.T) {
	src := chunkMap{}
	center := NewChunk(0, 0)
	fillChunk(center, block.Stone)
	src[center.Key()] = center

	for _, dir := range Lateral {
		o := dir.Offset()
		n := NewChunk(int32(o.X*SizeX), int32(o.Z*SizeZ))
		fillChunk(n, block.Stone)
		center.LinkNeighbor(n, dir)
		src[n.Key()] = n
	}

	opaque, _ := faces(center.BuildMesh(src))
	// остаются только верх и низ столбца
	assert.Equal(t, 2*SizeX*SizeZ, opaque)
}

func TestBuildMeshMissingNeighborIsExposed(t *testing.T) {
	a := NewChunk(0, 0)
	b := NewChunk(16, 0)
	require.NoError(t, a.SetBlock(15, 0, 0, block.Stone))
	require.NoError(t, b.SetBlock(0, 0, 0, block.Stone))

	opaque, _ := faces(a.BuildMesh(nil))
	assert.Equal(t, 6, opaque)

	a.LinkNeighbor(b, XPos)
	src := chunkMap{a.Key(): a, b.Key(): b}
	opaque, _ = faces(a.BuildMesh(src))
	assert.Equal(t, 5, opaque, "грань к соседнему камню скрыта")

	opaque, _ = faces(b.BuildMesh(src))
	assert.Equal(t, 5, opaque)
}

func TestBuildMeshWater(t *testing.T) {
	c := NewChunk(0, 0)
	require.NoError(t, c.SetBlock(2, 2, 2, block.Water))

	opaque, transparent := faces(c.BuildMesh(nil))
	assert.Zero(t, opaque)
	assert.Equal(t, 6, transparent)

	// камень рядом с водой: камень рисует грань к воде, вода к камню нет
	require.NoError(t, c.SetBlock(3, 2, 2, block.Stone))
	opaque, transparent = faces(c.BuildMesh(nil))
	assert.Equal(t, 6, opaque)
	assert.Equal(t, 5, transparent)

	// соседняя вода не даёт граней между собой
	require.NoError(t, c.SetBlock(1, 2, 2, block.Water))
	_, transparent = faces(c.BuildMesh(nil))
	assert.Equal(t, 5+4, transparent)
}

func TestBuildMeshTransparentAfterOpaque(t *testing.T) {
	c := NewChunk(0, 0)
	require.NoError(t, c.SetBlock(0, 0, 0, block.Water))
	require.NoError(t, c.SetBlock(8, 8, 8, block.Grass))

	m := c.BuildMesh(nil)
	require.Equal(t, 24, m.OpaqueVertexCount)
	assert.Equal(t, Range{First: 0, Count: 36}, m.OpaqueRange())
	assert.Equal(t, Range{First: 36, Count: 36}, m.TransparentRange())

	tr := m.Indices[m.TransparentRange().First:]
	assert.Equal(t, uint32(24), tr[0], "прозрачные индексы смещены")
	for _, i := range tr {
		assert.GreaterOrEqual(t, i, uint32(24))
		assert.Less(t, i, uint32(len(m.Vertices)))
	}
}

func TestBuildMeshUV(t *testing.T) {
	c := NewChunk(0, 0)
	require.NoError(t, c.SetBlock(0, 0, 0, block.Grass))
	m := c.BuildMesh(nil)

	// YPOS третья грань: верх травы
	top := m.Vertices[2*4]
	origin := block.AtlasOf(block.Grass, int(YPos))
	assert.Equal(t, origin[0], top.UV[0])
	assert.Equal(t, origin[1], top.UV[1])

	// ZPOS пятая грань: первый угол смещён по v
	z := m.Vertices[4*4]
	side := block.AtlasOf(block.Grass, int(ZPos))
	assert.Equal(t, side[1]+block.AtlasCell, z.UV[1])
}
