package worldgen

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Generator заполняет чанки ландшафтом: пещеры с лавой, горы и равнины,
// смешанные по шуму Ворли, снег, трава и вода.
//
// Все методы безопасны для одновременного вызова из нескольких воркеров:
// таблицы перестановок go-perlin строятся один раз в конструкторе.
type Generator struct {
	cfg   config.GenerationConfig
	grass *perlin.Perlin
	caves *perlin.Perlin
}

// NewGenerator создаёт генератор с константами из конфигурации
func NewGenerator(cfg config.GenerationConfig) *Generator {
	return &Generator{
		cfg:   cfg,
		grass: newPerlin(cfg.Seed),
		caves: newPerlin(cfg.Seed + 1),
	}
}

// Config возвращает константы генератора
func (g *Generator) Config() config.GenerationConfig {
	return g.cfg
}

// CaveDensity сумма октав трёхмерного шума; частота делится пополам на каждой октаве
func (g *Generator) CaveDensity(x, y, z int) float64 {
	freq := g.cfg.CaveFrequency
	sum := 0.0
	for i := 0; i < g.cfg.CaveOctaves; i++ {
		sum += g.caves.Noise3D(float64(x)/freq, float64(y)/freq, float64(z)/freq)
		freq /= 2
	}
	return sum
}

// IsCave сообщает, вырезана ли ячейка пещерой
func (g *Generator) IsCave(x, y, z int) bool {
	return g.CaveDensity(x, y, z) < 0
}

// GrassHeight высота равнинного рельефа над базовой высотой
func (g *Generator) GrassHeight(x, z int) int {
	n := g.grass.Noise2D(float64(x)/g.cfg.GrassFrequency, float64(z)/g.cfg.GrassFrequency)
	return int(math.Floor((1 - math.Abs(n)) * g.cfg.GrassAmplitude))
}

// MountainHeight высота горного рельефа по фрактальной сетке
func (g *Generator) MountainHeight(hf *HeightField, x, z int) int {
	v := math.Pow(math.Abs(hf.At(x, z)), g.cfg.MountainExponent)
	return clampInt(int(v), 0, g.cfg.MaxColumnHeight)
}

// BiomeWeight вес гор в точке: 0 равнина, 1 горы
func (g *Generator) BiomeWeight(x, z int) float64 {
	w := Worley(float64(x)*g.cfg.WorleyFrequency, float64(z)*g.cfg.WorleyFrequency)
	return Smoothstep(g.cfg.BlendLow, g.cfg.BlendHigh, w)
}

// ZoneRand возвращает источник случайности зоны; один и тот же ключ даёт ту же сетку высот
func (g *Generator) ZoneRand(zone world.Key) *rand.Rand {
	return rand.New(rand.NewSource(g.cfg.Seed ^ int64(zone)*0x5DEECE66D))
}

// GenerateZone заполняет все чанки зоны, разделяя одну сетку высот
func (g *Generator) GenerateZone(zone world.Key, chunks []*world.Chunk) {
	hf := NewHeightField(g.cfg.FractalLevels, g.ZoneRand(zone))
	for _, c := range chunks {
		g.GenerateChunk(c, hf)
	}
}

// GenerateChunk строит сетку чанка локально и атомарно подменяет её в чанке
func (g *Generator) GenerateChunk(c *world.Chunk, hf *HeightField) {
	ox, oz := c.Origin()
	grid := new(world.Grid)
	for x := 0; x < world.SizeX; x++ {
		for z := 0; z < world.SizeZ; z++ {
			g.fillColumn(grid, x, z, int(ox)+x, int(oz)+z, hf)
		}
	}
	c.Load(grid)
}

func (g *Generator) fillColumn(grid *world.Grid, x, z, wx, wz int, hf *HeightField) {
	cfg := g.cfg
	base, bed := cfg.BaseHeight, cfg.BedrockLevel

	// 1. пещеры под базовой высотой
	grid.Put(x, bed, z, block.Bedrock)
	for y := bed + 1; y < base; y++ {
		switch {
		case !g.IsCave(wx, y, wz):
			grid.Put(x, y, z, block.Stone)
		case y < bed+cfg.LavaBand:
			grid.Put(x, y, z, block.Lava)
		}
	}

	// 2. высота столбца
	t := g.BiomeWeight(wx, wz)
	yg := float64(g.GrassHeight(wx, wz))
	ym := float64(g.MountainHeight(hf, wx, wz))
	h := clampInt(int(Mix(yg, ym, t)), 0, base-1)
	top := h + base

	// 3. вода до уровня моря
	for y := top; y < cfg.WaterLevel; y++ {
		grid.Put(x, y, z, block.Water)
	}

	// 4. заполнение по биому
	if t > 0.5 {
		for k := 0; k <= h; k++ {
			if k == h && k+base >= cfg.SnowLevel {
				grid.Put(x, k+base, z, block.Snow)
			} else {
				grid.Put(x, k+base, z, block.Stone)
			}
		}
		return
	}

	opening := top > cfg.WaterLevel && top < cfg.CaveOpening
	for k := 0; k <= h; k++ {
		y := k + base
		if opening && g.IsCave(wx, y, wz) {
			continue
		}
		if k == h {
			grid.Put(x, y, z, block.Grass)
		} else {
			grid.Put(x, y, z, block.Dirt)
		}
	}
}
