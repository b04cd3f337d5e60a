package entity

import "github.com/annel0/voxelcore/internal/vec"

// Camera вычисляется из состояния игрока и не хранится отдельно
type Camera struct {
	Position vec.Vec3Float
	Forward  vec.Vec3Float
	Right    vec.Vec3Float
	Up       vec.Vec3Float
}

// Target точка, в которую смотрит камера
func (c Camera) Target() vec.Vec3Float {
	return c.Position.Add(c.Forward)
}
