package game

import "time"

// Clock отдаёт прошедшее время за тик, ограниченное сверху maxDelta,
// и монотонный номер кадра
type Clock struct {
	maxDelta time.Duration
	now      func() time.Time
	last     time.Time
	frame    uint64
}

// NewClock создаёт часы; maxDelta <= 0 отключает ограничение
func NewClock(maxDelta time.Duration) *Clock {
	return newClockWith(maxDelta, time.Now)
}

func newClockWith(maxDelta time.Duration, now func() time.Time) *Clock {
	return &Clock{maxDelta: maxDelta, now: now, last: now()}
}

// Tick возвращает секунды с прошлого вызова и номер нового кадра
func (c *Clock) Tick() (float64, uint64) {
	t := c.now()
	dt := t.Sub(c.last)
	c.last = t
	if dt < 0 {
		dt = 0
	}
	if c.maxDelta > 0 && dt > c.maxDelta {
		dt = c.maxDelta
	}
	c.frame++
	return dt.Seconds(), c.frame
}

// Frame номер последнего кадра
func (c *Clock) Frame() uint64 {
	return c.frame
}
