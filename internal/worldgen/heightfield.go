package worldgen

import (
	"math/rand"
)

// HeightField квадратная сетка фрактального смещения средней точки.
// Строится один раз на зону и разделяется всеми её чанками.
type HeightField struct {
	size   int
	values [][]float64
}

// NewHeightField строит сетку со стороной 2^(levels-1)+1. На уровне 0 углы
// равны нулю; на каждом следующем уровне точка получает среднее двух опорных
// точек плюс случайное смещение step*(r-0.5).
func NewHeightField(levels int, rng *rand.Rand) *HeightField {
	size := 1 << (levels - 1)
	values := make([][]float64, size+1)
	for i := range values {
		values[i] = make([]float64, size+1)
	}

	for lev := 0; lev < levels; lev++ {
		step := size >> lev
		for y := 0; y <= size; y += step {
			jump := 1 - (y/step)%2
			if lev == 0 {
				jump = 0
			}
			for x := step * jump; x <= size; x += step * (1 + jump) {
				pointer := 1 - (x/step)%2 + 2*jump
				if lev == 0 {
					pointer = 3
				}
				yref := step * (1 - pointer/2)
				xref := step * (1 - pointer%2)

				c1 := values[y-yref][x-xref]
				c2 := values[y+yref][x+xref]
				avg := (c1 + c2) / 2
				if lev == 0 {
					values[y][x] = 0
					continue
				}
				values[y][x] = avg + float64(step)*(rng.Float64()-0.5)
			}
		}
	}

	return &HeightField{size: size, values: values}
}

// Size возвращает сторону сетки без замыкающей строки
func (h *HeightField) Size() int {
	return h.size
}

// At возвращает значение по мировым координатам столбца; сетка повторяется
// с периодом size-1 по модулю координат.
func (h *HeightField) At(x, z int) float64 {
	period := h.size - 1
	return h.values[absInt(z)%period][absInt(x)%period]
}
