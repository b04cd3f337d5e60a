package world

import "github.com/annel0/voxelcore/internal/vec"

// Direction одна из шести осевых граней блока
type Direction uint8

// Порядок совпадает с таблицами атласа в пакете block
const (
	XPos Direction = iota
	XNeg
	YPos
	YNeg
	ZPos
	ZNeg
)

// Directions все шесть граней в каноническом порядке
var Directions = [6]Direction{XPos, XNeg, YPos, YNeg, ZPos, ZNeg}

// Lateral четыре горизонтальных направления, по которым связываются соседние чанки
var Lateral = [4]Direction{XPos, XNeg, ZPos, ZNeg}

var offsets = [6]vec.Vec3{
	XPos: {X: 1},
	XNeg: {X: -1},
	YPos: {Y: 1},
	YNeg: {Y: -1},
	ZPos: {Z: 1},
	ZNeg: {Z: -1},
}

var directionNames = [6]string{"XPOS", "XNEG", "YPOS", "YNEG", "ZPOS", "ZNEG"}

func (d Direction) String() string {
	if d > ZNeg {
		return "INVALID"
	}
	return directionNames[d]
}

// Offset возвращает единичное смещение по направлению
func (d Direction) Offset() vec.Vec3 {
	return offsets[d]
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// IsLateral сообщает, лежит ли направление в плоскости XZ
func (d Direction) IsLateral() bool {
	return d != YPos && d != YNeg
}

func lateralIndex(d Direction) int {
	switch d {
	case XPos:
		return 0
	case XNeg:
		return 1
	case ZPos:
		return 2
	default:
		return 3
	}
}
