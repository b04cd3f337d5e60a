package world

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/vec"
)

// Key упаковывает мировое начало чанка (x, z) в одно 64-битное значение:
// x в старших 32 битах, z в младших.
type Key int64

// PackKey упаковывает координаты начала чанка в ключ
func PackKey(x, z int32) Key {
	return Key(int64(x)<<32 | int64(uint32(z)))
}

// Unpack восстанавливает координаты начала чанка с расширением знака
func (k Key) Unpack() (x, z int32) {
	return int32(int64(k) >> 32), int32(uint32(k))
}

func (k Key) String() string {
	x, z := k.Unpack()
	return fmt.Sprintf("(%d,%d)", x, z)
}

// ChunkKeyAt возвращает ключ чанка, которому принадлежит мировой столбец (x, z)
func ChunkKeyAt(x, z int) Key {
	o := vec.Vec2{X: x, Z: z}.SnapTo(SizeX)
	return PackKey(int32(o.X), int32(o.Z))
}
