package api

import (
	"context"

	"github.com/annel0/voxelcore/internal/entity"
	"github.com/annel0/voxelcore/internal/game"
	"github.com/annel0/voxelcore/internal/terrain"
	"github.com/annel0/voxelcore/internal/world/block"
)

// PlayerInfo состояние игрока для отладки
type PlayerInfo struct {
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
	Flying   bool       `json:"flying"`
	Grounded bool       `json:"grounded"`
	InLiquid bool       `json:"in_liquid"`
	State    string     `json:"state"`
}

// WorldView доступ обработчиков к миру. Реализация сама решает, в каком
// потоке выполнять чтение.
type WorldView interface {
	Stats(ctx context.Context) (terrain.Stats, error)
	Block(ctx context.Context, x, y, z int) (block.Type, error)
	SetBlock(ctx context.Context, x, y, z int, t block.Type) error
	// ChunkBlocks возвращает сетку чанка, содержащего столбец (x, z), и его начало
	ChunkBlocks(ctx context.Context, x, z int) ([]byte, [2]int32, error)
	Player(ctx context.Context) (PlayerInfo, error)
}

// LoopView выполняет все запросы в потоке игрового цикла через Loop.Do
type LoopView struct {
	Loop *game.Loop
}

func (v LoopView) Stats(ctx context.Context) (terrain.Stats, error) {
	var s terrain.Stats
	err := v.Loop.Do(ctx, func(tm *terrain.Manager, _ *entity.Player) {
		s = tm.Stats()
	})
	return s, err
}

func (v LoopView) Block(ctx context.Context, x, y, z int) (block.Type, error) {
	var (
		t    block.Type
		berr error
	)
	if err := v.Loop.Do(ctx, func(tm *terrain.Manager, _ *entity.Player) {
		t, berr = tm.GetBlock(x, y, z)
	}); err != nil {
		return block.Empty, err
	}
	return t, berr
}

func (v LoopView) SetBlock(ctx context.Context, x, y, z int, t block.Type) error {
	var serr error
	if err := v.Loop.Do(ctx, func(tm *terrain.Manager, _ *entity.Player) {
		serr = tm.SetBlock(x, y, z, t)
	}); err != nil {
		return err
	}
	return serr
}

func (v LoopView) ChunkBlocks(ctx context.Context, x, z int) ([]byte, [2]int32, error) {
	var (
		data   []byte
		origin [2]int32
		found  bool
	)
	err := v.Loop.Do(ctx, func(tm *terrain.Manager, _ *entity.Player) {
		c, ok := tm.ChunkAt(x, z)
		if !ok {
			return
		}
		found = true
		origin[0], origin[1] = c.Origin()
		data = c.Snapshot().Bytes()
	})
	if err != nil {
		return nil, origin, err
	}
	if !found {
		return nil, origin, terrain.ErrNoChunk
	}
	return data, origin, nil
}

func (v LoopView) Player(ctx context.Context) (PlayerInfo, error) {
	var info PlayerInfo
	err := v.Loop.Do(ctx, func(_ *terrain.Manager, p *entity.Player) {
		pos, vel := p.Position(), p.Velocity()
		yaw, pitch := p.Orientation()
		info = PlayerInfo{
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Velocity: [3]float64{vel.X, vel.Y, vel.Z},
			Yaw:      yaw,
			Pitch:    pitch,
			Flying:   p.IsFlying(),
			Grounded: p.IsGrounded(),
			InLiquid: p.InLiquid(),
			State:    p.State().Name(),
		}
	})
	return info, err
}
