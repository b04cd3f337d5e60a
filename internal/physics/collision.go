package physics

import (
	"errors"
	"math"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Skin зазор, который остаётся между телом и препятствием после столкновения
const Skin = 1e-3

// solidOnly пропускает жидкости: сквозь воду и лаву тело проходит
type solidOnly struct {
	w BlockQuery
}

func (s solidOnly) GetBlock(x, y, z int) (block.Type, error) {
	t, err := s.w.GetBlock(x, y, z)
	if t.IsLiquid() {
		return block.Empty, err
	}
	return t, err
}

// BoxCollider вертикальный параллелепипед тела; позиция отсчитывается от
// центра нижней грани
type BoxCollider struct {
	HalfWidth float64
	Height    float64
}

// NewBoxCollider создаёт коллайдер с указанными размерами
func NewBoxCollider(halfWidth, height float64) BoxCollider {
	return BoxCollider{HalfWidth: halfWidth, Height: height}
}

// SamplePoints возвращает точки тела, из которых пускаются лучи при движении
// вдоль axis в сторону знака dir. Для вертикали хватает четырёх углов ступней
// или макушки, для горизонтали берутся углы на трёх высотах.
func (bc BoxCollider) SamplePoints(pos vec.Vec3Float, axis int, dir float64) []vec.Vec3Float {
	hw := bc.HalfWidth
	corners := [4][2]float64{{-hw, -hw}, {hw, -hw}, {hw, hw}, {-hw, hw}}

	var heights []float64
	if axis == vec.AxisY {
		if dir < 0 {
			heights = []float64{0}
		} else {
			heights = []float64{bc.Height}
		}
	} else {
		heights = []float64{0, bc.Height / 2, bc.Height}
	}

	points := make([]vec.Vec3Float, 0, len(corners)*len(heights))
	for _, h := range heights {
		for _, c := range corners {
			points = append(points, vec.Vec3Float{X: pos.X + c[0], Y: pos.Y + h, Z: pos.Z + c[1]})
		}
	}
	return points
}

// AxisResult итог разрешения движения по одной оси
type AxisResult struct {
	Delta   float64
	Blocked bool
}

// ResolveAxis ограничивает смещение delta по оси ближайшим препятствием
// среди лучей из точек тела. Луч длиннее смещения на Skin, так что тело
// никогда не встаёт вплотную к грани. Ячейка, которую нельзя прочитать (мир
// ещё не загружен), считается препятствием на нулевом расстоянии.
func (bc BoxCollider) ResolveAxis(pos vec.Vec3Float, axis int, delta float64, w BlockQuery) AxisResult {
	if delta == 0 {
		return AxisResult{}
	}
	reach := math.Copysign(math.Abs(delta)+Skin, delta)
	allowed := math.Abs(delta)
	blocked := false
	solid := solidOnly{w: w}
	for _, p := range bc.SamplePoints(pos, axis, delta) {
		hit, err := AxisMarch(p, axis, reach, solid)
		if err != nil && !errors.Is(err, ErrNoAxis) {
			allowed, blocked = 0, true
			break
		}
		if !hit.Found {
			continue
		}
		if d := math.Max(0, hit.Distance-Skin); d < allowed {
			allowed, blocked = d, true
		}
	}
	if !blocked {
		return AxisResult{Delta: delta}
	}
	return AxisResult{Delta: math.Copysign(allowed, delta), Blocked: true}
}

// Move разрешает смещение по осям X, Y, Z по очереди, каждая ось
// стартует из позиции после предыдущей
func (bc BoxCollider) Move(pos, delta vec.Vec3Float, w BlockQuery) (vec.Vec3Float, [3]AxisResult) {
	var res [3]AxisResult
	for axis := 0; axis < 3; axis++ {
		res[axis] = bc.ResolveAxis(pos, axis, delta.Axis(axis), w)
		pos = pos.WithAxis(axis, pos.Axis(axis)+res[axis].Delta)
	}
	return pos, res
}
