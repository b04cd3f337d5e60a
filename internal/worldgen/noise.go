package worldgen

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Параметры go-perlin: одна октава даёт «сырой» градиентный шум в [-1, 1].
// Октавы пещер складываются вручную с делением частоты.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = int32(1)
)

func newPerlin(seed int64) *perlin.Perlin {
	return perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

// random2 детерминированный хэш ячейки Ворли
func random2(px, py float64) (float64, float64) {
	a := px*127.1 + py*311.7
	b := px*269.5 + py*183.3
	return fract(math.Sin(a) * 43758.5453), fract(math.Sin(b) * 43758.5453)
}

// Worley возвращает расстояние до ближайшей точки-зерна (F1), поиск по 3x3 ячейкам
func Worley(x, y float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy

	minD := 1.0
	for ny := -1.0; ny <= 1; ny++ {
		for nx := -1.0; nx <= 1; nx++ {
			px, py := random2(ix+nx, iy+ny)
			dx := nx + px - fx
			dy := ny + py - fy
			if d := math.Sqrt(dx*dx + dy*dy); d < minD {
				minD = d
			}
		}
	}
	return minD
}

// Smoothstep эрмитова интерполяция между краями e0 и e1
func Smoothstep(e0, e1, x float64) float64 {
	t := Clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// Mix линейная интерполяция
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Clamp ограничивает значение отрезком [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
