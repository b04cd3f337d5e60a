package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// ErrNoAxis возвращается для нулевого направления луча: ни одна ось не пересекается
var ErrNoAxis = errors.New("grid march: direction has no non-zero axis")

// BlockQuery источник блоков в мировых координатах
type BlockQuery interface {
	GetBlock(x, y, z int) (block.Type, error)
}

// Hit результат прохода луча по сетке
type Hit struct {
	Found    bool
	Cell     vec.Vec3
	Block    block.Type
	Distance float64
	// Axis ось, через грань которой луч вошёл в ячейку; -1 если пересечений не было
	Axis int
}

// GridMarch проходит луч origin+ray по ячейкам единичной сетки и останавливается
// на первой непустой ячейке. Длина ray ограничивает проход.
//
// Для каждой оси хранится параметр следующего пересечения грани. При движении
// в отрицательную сторону из точки, лежащей ровно на грани, пересечение
// происходит сразу (t = 0), а индекс ячейки смещается на -1, поэтому проход
// не стоит на месте и не пропускает соседнюю ячейку.
func GridMarch(origin, ray vec.Vec3Float, w BlockQuery) (Hit, error) {
	maxLen := ray.Length()
	if maxLen == 0 {
		return Hit{Axis: -1}, ErrNoAxis
	}
	dir := ray.Mul(1 / maxLen)
	cell := origin.Floor()

	var step [3]int
	var tMax, tDelta [3]float64
	for i := 0; i < 3; i++ {
		d := dir.Axis(i)
		o := origin.Axis(i)
		c := float64(cell.Axis(i))
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (c + 1 - o) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (c - o) / d
			tDelta[i] = -1 / d
		default:
			tMax[i] = math.Inf(1)
		}
	}

	for {
		axis := 0
		for i := 1; i < 3; i++ {
			if tMax[i] < tMax[axis] {
				axis = i
			}
		}
		t := math.Max(0, tMax[axis])
		if t >= maxLen {
			return Hit{Distance: maxLen, Axis: -1}, nil
		}

		cell = cell.WithAxis(axis, cell.Axis(axis)+step[axis])
		b, err := w.GetBlock(cell.X, cell.Y, cell.Z)
		if err != nil {
			return Hit{Cell: cell, Distance: t, Axis: axis}, fmt.Errorf("grid march at %v: %w", cell, err)
		}
		if b != block.Empty {
			return Hit{Found: true, Cell: cell, Block: b, Distance: t, Axis: axis}, nil
		}
		tMax[axis] += tDelta[axis]
	}
}

// AxisMarch проход вдоль одной оси на знаковое расстояние dist
func AxisMarch(origin vec.Vec3Float, axis int, dist float64, w BlockQuery) (Hit, error) {
	if dist == 0 {
		return Hit{Axis: -1}, ErrNoAxis
	}
	return GridMarch(origin, vec.Unit(axis).Mul(dist), w)
}
