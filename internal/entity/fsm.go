package entity

import "github.com/annel0/voxelcore/internal/vec"

// MovementState режим движения игрока. Состояние выбирается в конце каждого
// тика по флагам игрока и определяет вертикальные силы следующего тика.
type MovementState interface {
	Name() string
	// Vertical добавляет к ускорению вертикальную составляющую режима
	Vertical(p *Player, in InputBundle, accel vec.Vec3Float) vec.Vec3Float
}

type flyingState struct{}
type groundedState struct{}
type airborneState struct{}
type swimmingState struct{}

var (
	Flying   MovementState = flyingState{}
	Grounded MovementState = groundedState{}
	Airborne MovementState = airborneState{}
	Swimming MovementState = swimmingState{}
)

func (flyingState) Name() string   { return "flying" }
func (groundedState) Name() string { return "grounded" }
func (airborneState) Name() string { return "airborne" }
func (swimmingState) Name() string { return "swimming" }

// В полёте гравитации нет, вверх и вниз двигают отдельные кнопки
func (flyingState) Vertical(p *Player, in InputBundle, accel vec.Vec3Float) vec.Vec3Float {
	if in.Up {
		accel.Y += p.speed(in)
	}
	if in.Down {
		accel.Y -= p.speed(in)
	}
	return accel
}

// Прыжок доступен только с опоры
func (groundedState) Vertical(p *Player, in InputBundle, accel vec.Vec3Float) vec.Vec3Float {
	if in.Jump {
		p.velocity.Y += p.cfg.JumpImpulse
		p.grounded = false
	}
	accel.Y -= p.cfg.Gravity
	return accel
}

func (airborneState) Vertical(p *Player, in InputBundle, accel vec.Vec3Float) vec.Vec3Float {
	accel.Y -= p.cfg.Gravity
	return accel
}

// В жидкости прыжок даёт плавучесть сверх гравитации
func (swimmingState) Vertical(p *Player, in InputBundle, accel vec.Vec3Float) vec.Vec3Float {
	accel.Y -= p.cfg.Gravity
	if in.Jump {
		if p.grounded {
			p.velocity.Y += p.cfg.JumpImpulse
			p.grounded = false
		}
		accel.Y += p.cfg.Gravity + p.cfg.SwimAcceleration
	}
	return accel
}

func nextState(p *Player) MovementState {
	switch {
	case p.flyMode:
		return Flying
	case p.inLiquid:
		return Swimming
	case p.grounded:
		return Grounded
	default:
		return Airborne
	}
}
