package vec

import "math"

// Vec2 представляет координаты столбца мира в плоскости XZ
type Vec2 struct {
	X, Z int
}

// FloorDiv делит с округлением вниз, в том числе для отрицательных значений
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток от деления
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// SnapTo выравнивает координаты вниз по сетке с шагом size
func (v Vec2) SnapTo(size int) Vec2 {
	return Vec2{X: size * FloorDiv(v.X, size), Z: size * FloorDiv(v.Z, size)}
}

// LocalIn возвращает локальные координаты внутри ячейки размера size
func (v Vec2) LocalIn(size int) Vec2 {
	return Vec2{X: FloorMod(v.X, size), Z: FloorMod(v.Z, size)}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}
