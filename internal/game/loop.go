package game

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/entity"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/terrain"
	"github.com/annel0/voxelcore/internal/vec"
)

// ErrStopped возвращается из Do после остановки цикла
var ErrStopped = errors.New("game loop stopped")

// Query выполняется в потоке цикла между тиками и может читать и менять мир
type Query func(tm *terrain.Manager, p *entity.Player)

type request struct {
	fn   Query
	done chan struct{}
}

// Loop владеет менеджером ландшафта и игроком. Все обращения к ним идут из
// одной горутины: тики и запросы Do выполняются по очереди.
type Loop struct {
	cfg     config.LoopConfig
	terrain *terrain.Manager
	player  *entity.Player
	input   InputSource
	clock   *Clock
	logger  *logging.Logger

	requests chan request
	stopped  chan struct{}
	lastPos  vec.Vec3Float
	started  bool
}

// NewLoop создаёт цикл. input == nil означает отсутствие ввода.
func NewLoop(cfg config.LoopConfig, tm *terrain.Manager, p *entity.Player, input InputSource) *Loop {
	if input == nil {
		input = &StaticInput{}
	}
	return &Loop{
		cfg:      cfg,
		terrain:  tm,
		player:   p,
		input:    input,
		clock:    NewClock(cfg.MaxDeltaTime),
		logger:   logging.GetGameLogger(),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Start загружает начальную область вокруг игрока. Повторный вызов ничего не делает.
func (l *Loop) Start() {
	if l.started {
		return
	}
	l.started = true
	l.lastPos = l.player.Position()
	l.terrain.LoadInitialArea(l.lastPos)
}

// Step выполняет один тик: игрок, действия, расширение зон, приём результатов
func (l *Loop) Step(ctx context.Context) {
	l.Start()
	dt, frame := l.clock.Tick()
	in := l.input.Next(frame)

	l.player.Tick(dt, in, l.terrain)
	l.applyActions(in)

	pos := l.player.Position()
	if l.terrain.TryExpand(l.lastPos, pos) {
		l.logger.Debug("Игрок перешёл в зону %v", terrain.ZoneOrigin(pos))
	}
	l.lastPos = pos

	l.terrain.DrainCompletedWork(ctx)
}

func (l *Loop) applyActions(in entity.InputBundle) {
	if in.ToggleFly {
		l.player.ToggleFlyMode()
		l.logger.Info("Режим полёта: %v", l.player.IsFlying())
	}
	if in.Break {
		if cell, ok, err := l.player.BreakBlock(l.terrain); err != nil {
			l.logger.Warn("Не удалось сломать блок: %v", err)
		} else if ok {
			l.logger.Debug("Сломан блок %v", cell)
		}
	}
	if in.Place {
		if cell, ok, err := l.player.PlaceBlock(l.terrain); err != nil {
			l.logger.Warn("Не удалось поставить блок: %v", err)
		} else if ok {
			l.logger.Debug("Поставлен блок %v", cell)
		}
	}
}

// Run крутит тики с частотой TickRate до отмены ctx, между тиками
// обслуживая запросы Do
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	rate := l.cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	l.Start()
	l.logger.Info("Игровой цикл запущен: %d тиков/с", rate)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Игровой цикл остановлен на кадре %d", l.clock.Frame())
			return nil
		case req := <-l.requests:
			req.fn(l.terrain, l.player)
			close(req.done)
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Do выполняет fn в потоке цикла и ждёт завершения
func (l *Loop) Do(ctx context.Context, fn Query) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case l.requests <- req:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frame номер последнего выполненного тика
func (l *Loop) Frame() uint64 {
	return l.clock.Frame()
}
