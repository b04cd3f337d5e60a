package world

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/world/block"
)

// Размеры чанка
const (
	SizeX  = 16
	SizeY  = 256
	SizeZ  = 16
	Volume = SizeX * SizeY * SizeZ
)

// Grid плотный массив типов блоков чанка. Индекс: x + 16*y + 4096*z.
type Grid [Volume]block.Type

// InBounds проверяет локальные координаты
func InBounds(x, y, z int) bool {
	return x >= 0 && x < SizeX && y >= 0 && y < SizeY && z >= 0 && z < SizeZ
}

func index(x, y, z int) int {
	return x + SizeX*y + SizeX*SizeY*z
}

// Get возвращает тип блока по локальным координатам
func (g *Grid) Get(x, y, z int) (block.Type, error) {
	if !InBounds(x, y, z) {
		return block.Empty, fmt.Errorf("get (%d,%d,%d): %w", x, y, z, ErrOutOfRange)
	}
	return g[index(x, y, z)], nil
}

// Set записывает тип блока по локальным координатам
func (g *Grid) Set(x, y, z int, t block.Type) error {
	if !InBounds(x, y, z) {
		return fmt.Errorf("set (%d,%d,%d): %w", x, y, z, ErrOutOfRange)
	}
	g[index(x, y, z)] = t
	return nil
}

// At читает без проверки; координаты должны быть валидны
func (g *Grid) At(x, y, z int) block.Type {
	return g[index(x, y, z)]
}

// Put пишет без проверки; координаты должны быть валидны
func (g *Grid) Put(x, y, z int, t block.Type) {
	g[index(x, y, z)] = t
}

// Bytes возвращает содержимое сетки в порядке индекса
func (g *Grid) Bytes() []byte {
	out := make([]byte, Volume)
	for i, t := range g {
		out[i] = byte(t)
	}
	return out
}
