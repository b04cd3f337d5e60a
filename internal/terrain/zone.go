package terrain

import (
	"math"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
)

const (
	// ZoneChunks число чанков вдоль стороны зоны
	ZoneChunks = 4
	// ZoneSize сторона зоны в мировых единицах
	ZoneSize = ZoneChunks * world.SizeX
)

// ZoneOrigin возвращает начало зоны, содержащей позицию
func ZoneOrigin(pos vec.Vec3Float) vec.Vec2 {
	col := vec.Vec2{X: int(math.Floor(pos.X)), Z: int(math.Floor(pos.Z))}
	return col.SnapTo(ZoneSize)
}

// ZoneKey упаковывает начало зоны в ключ
func ZoneKey(origin vec.Vec2) world.Key {
	return world.PackKey(int32(origin.X), int32(origin.Z))
}

// ZoneKeysAround возвращает ключи зон квадрата (2r+1)x(2r+1) вокруг origin,
// по строкам X, внутри строки по Z
func ZoneKeysAround(origin vec.Vec2, radius int) []world.Key {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	keys := make([]world.Key, 0, side*side)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			keys = append(keys, ZoneKey(vec.Vec2{X: origin.X + dx*ZoneSize, Z: origin.Z + dz*ZoneSize}))
		}
	}
	return keys
}

// zoneChunkKeys ключи 16 чанков зоны
func zoneChunkKeys(zone world.Key) []world.Key {
	zx, zz := zone.Unpack()
	keys := make([]world.Key, 0, ZoneChunks*ZoneChunks)
	for x := int32(0); x < ZoneSize; x += world.SizeX {
		for z := int32(0); z < ZoneSize; z += world.SizeZ {
			keys = append(keys, world.PackKey(zx+x, zz+z))
		}
	}
	return keys
}

// zoneOfChunk возвращает ключ зоны, которой принадлежит чанк
func zoneOfChunk(chunk world.Key) world.Key {
	x, z := chunk.Unpack()
	return ZoneKey(vec.Vec2{X: int(x), Z: int(z)}.SnapTo(ZoneSize))
}

func keySet(keys []world.Key) map[world.Key]struct{} {
	set := make(map[world.Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
