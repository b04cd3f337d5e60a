package block

import (
	"fmt"
	"strings"
)

// Type представляет тип блока. Хранится в сетке чанка одним байтом.
type Type uint8

// Константы типов блоков. Порядок значим: он совпадает с индексами таблиц цвета и атласа.
const (
	Empty Type = iota
	Grass
	Dirt
	Stone
	Water
	Snow
	Debug
	Lava
	Ice
	Bedrock

	// Count количество известных типов
	Count
)

var names = [Count]string{
	Empty:   "EMPTY",
	Grass:   "GRASS",
	Dirt:    "DIRT",
	Stone:   "STONE",
	Water:   "WATER",
	Snow:    "SNOW",
	Debug:   "DEBUG",
	Lava:    "LAVA",
	Ice:     "ICE",
	Bedrock: "BEDROCK",
}

// String возвращает имя типа блока
func (t Type) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return names[t]
}

// IsValid проверяет, что значение попадает в перечисление
func (t Type) IsValid() bool {
	return t < Count
}

// IsSeeThrough сообщает, видна ли грань непрозрачного соседа сквозь этот блок
func (t Type) IsSeeThrough() bool {
	return t == Empty || t == Water
}

// IsLiquid сообщает, замедляет ли блок движение игрока и даёт ли плавучесть
func (t Type) IsLiquid() bool {
	return t == Water || t == Lava
}

// IsSolid сообщает, участвует ли блок в столкновениях
func (t Type) IsSolid() bool {
	return t != Empty
}

// Parse разбирает имя типа блока без учёта регистра
func Parse(name string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range names {
		if n == upper {
			return Type(i), nil
		}
	}
	return Empty, fmt.Errorf("unknown block type %q", name)
}
