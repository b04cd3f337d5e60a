package block

// RGBA цвет блока в диапазоне [0, 1]
type RGBA [4]float32

// UV начало ячейки атласа 16x16 в текстурных координатах
type UV [2]float32

// AtlasCell размер одной ячейки атласа в текстурных координатах
const AtlasCell float32 = 1.0 / 16.0

func rgb(r, g, b float32) RGBA {
	return RGBA{r / 255, g / 255, b / 255, 1}
}

func cell(u, v float32) UV {
	return UV{u * AtlasCell, v * AtlasCell}
}

func sameFaces(c UV) [6]UV {
	return [6]UV{c, c, c, c, c, c}
}

// Таблицы только для чтения; индексируются типом блока.
var (
	colors = [Count]RGBA{
		Empty:   {0, 0, 0, 0},
		Grass:   rgb(95, 159, 53),
		Dirt:    rgb(121, 85, 58),
		Stone:   {0.5, 0.5, 0.5, 1},
		Water:   {0, 0, 0.75, 1},
		Snow:    {1, 1, 1, 1},
		Debug:   {1, 0, 1, 1},
		Lava:    {1, 0, 0, 1},
		Ice:     {0.7, 0.85, 1, 1},
		Bedrock: {1, 1, 0, 1},
	}

	// Грани в порядке XPOS, XNEG, YPOS, YNEG, ZPOS, ZNEG
	atlas = [Count][6]UV{
		Empty: sameFaces(cell(0, 0)),
		Grass: {
			cell(3, 15), cell(3, 15),
			cell(8, 13), cell(2, 15),
			cell(3, 15), cell(3, 15),
		},
		Dirt:    sameFaces(cell(2, 15)),
		Stone:   sameFaces(cell(1, 15)),
		Water:   sameFaces(cell(13, 3)),
		Snow:    sameFaces(cell(3, 11)),
		Debug:   sameFaces(cell(15, 14)),
		Lava:    sameFaces(cell(13, 1)),
		Ice:     sameFaces(cell(4, 11)),
		Bedrock: sameFaces(cell(1, 14)),
	}
)

// ColorOf возвращает цвет блока. Для неизвестных типов возвращается цвет DEBUG.
func ColorOf(t Type) RGBA {
	if !t.IsValid() {
		return colors[Debug]
	}
	return colors[t]
}

// AtlasOf возвращает начало ячейки атласа для грани блока.
// face задаётся в порядке XPOS, XNEG, YPOS, YNEG, ZPOS, ZNEG.
func AtlasOf(t Type, face int) UV {
	if !t.IsValid() {
		t = Debug
	}
	return atlas[t][face%6]
}
