package entity

import "github.com/annel0/voxelcore/internal/vec"

// InputBundle снимок ввода за тик. Кнопки действий Place, Break и
// ToggleFly срабатывают по фронту: источник ввода выставляет их на один тик.
type InputBundle struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Up      bool
	Down    bool
	Jump    bool
	Sprint  bool

	Place     bool
	Break     bool
	ToggleFly bool

	Mouse     vec.Vec2Float
	PrevMouse vec.Vec2Float
}

// MouseDelta смещение курсора с прошлого тика
func (in InputBundle) MouseDelta() vec.Vec2Float {
	return in.Mouse.Sub(in.PrevMouse)
}
