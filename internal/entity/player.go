package entity

import (
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/physics"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// World мир, который игрок может читать и менять
type World interface {
	physics.BlockQuery
	SetBlock(x, y, z int, t block.Type) error
}

var worldUp = vec.Vec3Float{Y: 1}

// referenceRate частота тиков, для которой задано затухание в жидкости
const referenceRate = 60.0

// Player игрок: позиция ступней, скорость, ускорение, ориентация и флаги режима
type Player struct {
	cfg      config.PlayerConfig
	collider physics.BoxCollider

	position     vec.Vec3Float
	velocity     vec.Vec3Float
	acceleration vec.Vec3Float

	// углы в градусах; базис пересчитывается из них
	yaw, pitch         float64
	forward, right, up vec.Vec3Float
	flyMode, grounded  bool
	inLiquid           bool
	state              MovementState
}

// NewPlayer создаёт игрока в точке появления из конфигурации, взглядом вдоль -Z
func NewPlayer(cfg config.PlayerConfig) *Player {
	p := &Player{
		cfg:      cfg,
		collider: physics.NewBoxCollider(cfg.HalfWidth, cfg.Height),
		position: vec.Vec3Float{X: cfg.Spawn[0], Y: cfg.Spawn[1], Z: cfg.Spawn[2]},
		flyMode:  cfg.FlyMode,
	}
	p.updateBasis()
	p.state = nextState(p)
	return p
}

func (p *Player) Position() vec.Vec3Float     { return p.position }
func (p *Player) Velocity() vec.Vec3Float     { return p.velocity }
func (p *Player) Acceleration() vec.Vec3Float { return p.acceleration }
func (p *Player) Forward() vec.Vec3Float      { return p.forward }
func (p *Player) IsFlying() bool              { return p.flyMode }
func (p *Player) IsGrounded() bool            { return p.grounded }
func (p *Player) InLiquid() bool              { return p.inLiquid }
func (p *Player) State() MovementState        { return p.state }

// Orientation возвращает рысканье и тангаж в градусах
func (p *Player) Orientation() (yaw, pitch float64) {
	return p.yaw, p.pitch
}

// SetPosition телепортирует игрока
func (p *Player) SetPosition(pos vec.Vec3Float) {
	p.position = pos
}

// SetOrientation задаёт рысканье и тангаж в градусах; тангаж ограничивается
func (p *Player) SetOrientation(yaw, pitch float64) {
	p.yaw = yaw
	p.pitch = pitch
	p.updateBasis()
}

// ToggleFlyMode переключает полёт; гравитация действует только вне полёта
func (p *Player) ToggleFlyMode() {
	p.flyMode = !p.flyMode
	p.grounded = false
	p.state = nextState(p)
}

// Camera возвращает камеру: позиция игрока со смещением по высоте и тот же базис
func (p *Player) Camera() Camera {
	return Camera{
		Position: p.position.Add(vec.Vec3Float{Y: p.cfg.CameraHeight}),
		Forward:  p.forward,
		Right:    p.right,
		Up:       p.up,
	}
}

func (p *Player) updateBasis() {
	p.pitch = math.Max(-p.cfg.MaxPitch, math.Min(p.cfg.MaxPitch, p.pitch))
	yaw := p.yaw * math.Pi / 180
	pitch := p.pitch * math.Pi / 180
	p.forward = vec.Vec3Float{
		X: -math.Sin(yaw) * math.Cos(pitch),
		Y: math.Sin(pitch),
		Z: -math.Cos(yaw) * math.Cos(pitch),
	}.Normalized()
	p.right = p.forward.Cross(worldUp).Normalized()
	p.up = p.right.Cross(p.forward).Normalized()
}

func (p *Player) speed(in InputBundle) float64 {
	if in.Sprint {
		return p.cfg.Speed * p.cfg.SprintMultiplier
	}
	return p.cfg.Speed
}

// Tick продвигает игрока на dt секунд: ввод, обзор мышью, физика,
// столкновения по осям и применение смещения
func (p *Player) Tick(dt float64, in InputBundle, w physics.BlockQuery) {
	p.inLiquid = p.sampleLiquid(w)
	p.state = nextState(p)

	p.applyInput(in)
	p.applyLook(in)
	delta := p.integrate(dt)
	p.collide(delta, w)

	p.state = nextState(p)
}

func (p *Player) applyInput(in InputBundle) {
	forward := p.forward
	if !p.flyMode {
		forward = vec.Vec3Float{X: forward.X, Z: forward.Z}.Normalized()
	}

	var thrust vec.Vec3Float
	if in.Forward {
		thrust = thrust.Add(forward)
	}
	if in.Back {
		thrust = thrust.Sub(forward)
	}
	if in.Right {
		thrust = thrust.Add(p.right)
	}
	if in.Left {
		thrust = thrust.Sub(p.right)
	}

	accel := thrust.Normalized().Mul(p.speed(in))
	p.acceleration = p.state.Vertical(p, in, accel)
}

func (p *Player) applyLook(in InputBundle) {
	d := in.MouseDelta()
	if d.X == 0 && d.Y == 0 {
		return
	}
	p.yaw -= d.X * p.cfg.MouseSensitivity
	p.pitch -= d.Y * p.cfg.MouseSensitivity
	p.updateBasis()
}

func (p *Player) integrate(dt float64) vec.Vec3Float {
	k := math.Max(0, 1-p.cfg.Friction*dt)
	p.velocity.X *= k
	p.velocity.Z *= k
	if p.flyMode {
		p.velocity.Y *= k
	}

	p.velocity = settle(p.velocity, p.cfg.SettleThreshold)
	p.acceleration = settle(p.acceleration, p.cfg.SettleThreshold)

	p.velocity = p.velocity.Add(p.acceleration.Mul(dt))
	if p.inLiquid && !p.flyMode {
		p.velocity = p.velocity.Mul(math.Pow(p.cfg.LiquidDamping, dt*referenceRate))
	}
	return p.velocity.Mul(dt)
}

func settle(v vec.Vec3Float, threshold float64) vec.Vec3Float {
	for i := 0; i < 3; i++ {
		if math.Abs(v.Axis(i)) < threshold {
			v = v.WithAxis(i, 0)
		}
	}
	return v
}

func (p *Player) collide(delta vec.Vec3Float, w physics.BlockQuery) {
	pos, res := p.collider.Move(p.position, delta, w)
	for axis, r := range res {
		if r.Blocked {
			p.velocity = p.velocity.WithAxis(axis, 0)
			p.acceleration = p.acceleration.WithAxis(axis, 0)
		}
	}
	switch {
	case res[vec.AxisY].Blocked && delta.Y < 0:
		p.grounded = true
	case delta.Y != 0:
		p.grounded = false
	}
	p.position = pos
}

func (p *Player) sampleLiquid(w physics.BlockQuery) bool {
	c := p.position.Add(vec.Vec3Float{Y: p.cfg.Height / 2}).Floor()
	t, err := w.GetBlock(c.X, c.Y, c.Z)
	return err == nil && t.IsLiquid()
}

// target пускает луч из камеры вдоль взгляда на дальность Reach
func (p *Player) target(w physics.BlockQuery) (physics.Hit, error) {
	cam := p.Camera()
	hit, err := physics.GridMarch(cam.Position, cam.Forward.Mul(p.cfg.Reach), w)
	if err != nil {
		return hit, fmt.Errorf("aim: %w", err)
	}
	return hit, nil
}

// BreakBlock очищает блок под прицелом. Возвращает изменённую ячейку и
// признак изменения.
func (p *Player) BreakBlock(w World) (vec.Vec3, bool, error) {
	hit, err := p.target(w)
	if err != nil || !hit.Found {
		return vec.Vec3{}, false, err
	}
	if err := w.SetBlock(hit.Cell.X, hit.Cell.Y, hit.Cell.Z, block.Empty); err != nil {
		return hit.Cell, false, fmt.Errorf("break %v: %w", hit.Cell, err)
	}
	return hit.Cell, true, nil
}

// PlaceBlock ставит блок того же типа, что под прицелом, в ячейку перед
// гранью попадания (на шаг назад по оси входа луча).
func (p *Player) PlaceBlock(w World) (vec.Vec3, bool, error) {
	hit, err := p.target(w)
	if err != nil || !hit.Found {
		return vec.Vec3{}, false, err
	}
	back := -1
	if p.forward.Axis(hit.Axis) < 0 {
		back = 1
	}
	cell := hit.Cell.WithAxis(hit.Axis, hit.Cell.Axis(hit.Axis)+back)
	if err := w.SetBlock(cell.X, cell.Y, cell.Z, hit.Block); err != nil {
		return cell, false, fmt.Errorf("place %v: %w", cell, err)
	}
	return cell, true, nil
}
