package world

import "errors"

// ErrOutOfRange возвращается при обращении к ячейке за пределами чанка
var ErrOutOfRange = errors.New("block coordinates out of range")
