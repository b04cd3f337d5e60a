package vec

import "math"

// Vec3 представляет трехмерный вектор с целочисленными координатами (ячейка сетки)
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Оси для индексного доступа
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Axis возвращает компоненту по индексу оси
func (v Vec3) Axis(i int) int {
	switch i {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// WithAxis возвращает копию вектора с заменённой компонентой
func (v Vec3) WithAxis(i, value int) Vec3 {
	switch i {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// ToFloat преобразует в Vec3Float
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Column возвращает проекцию на плоскость XZ
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(s float64) Vec3Float {
	return Vec3Float{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3Float) Dot(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3Float) Cross(o Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized возвращает нормализованный вектор; нулевой вектор остаётся нулевым
func (v Vec3Float) Normalized() Vec3Float {
	l := v.Length()
	if l == 0 {
		return Vec3Float{}
	}
	return v.Mul(1 / l)
}

// Axis возвращает компоненту по индексу оси
func (v Vec3Float) Axis(i int) float64 {
	switch i {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// WithAxis возвращает копию вектора с заменённой компонентой
func (v Vec3Float) WithAxis(i int, value float64) Vec3Float {
	switch i {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// Floor возвращает ячейку сетки, содержащую точку
func (v Vec3Float) Floor() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// Unit возвращает единичный вектор вдоль оси
func Unit(axis int) Vec3Float {
	return Vec3Float{}.WithAxis(axis, 1)
}
