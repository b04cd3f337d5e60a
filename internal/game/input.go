package game

import (
	"github.com/annel0/voxelcore/internal/entity"
	"github.com/annel0/voxelcore/internal/vec"
)

// InputSource поставляет снимок ввода на каждый тик
type InputSource interface {
	Next(frame uint64) entity.InputBundle
}

// StaticInput повторяет один и тот же снимок. Кнопки действий
// (Place, Break, ToggleFly) срабатывают только на первом тике.
type StaticInput struct {
	Bundle entity.InputBundle
	fired  bool
}

func (s *StaticInput) Next(uint64) entity.InputBundle {
	in := s.Bundle
	if s.fired {
		in.Place, in.Break, in.ToggleFly = false, false, false
	}
	s.fired = true
	return in
}

// AutoWalk бот для безголового режима: идёт вперёд и медленно
// поворачивает, имитируя движение мыши
type AutoWalk struct {
	// TurnPixels смещение курсора по X за тик
	TurnPixels float64
	// Sprint удерживать ли ускорение
	Sprint bool

	mouse vec.Vec2Float
}

func (a *AutoWalk) Next(uint64) entity.InputBundle {
	prev := a.mouse
	a.mouse = a.mouse.Add(vec.Vec2Float{X: a.TurnPixels})
	return entity.InputBundle{
		Forward:   true,
		Sprint:    a.Sprint,
		Mouse:     a.mouse,
		PrevMouse: prev,
	}
}
