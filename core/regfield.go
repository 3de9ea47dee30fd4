package core

import "golang.org/x/exp/constraints"

// Field describes a bit field of Width bits starting at Shift inside a
// register word of type T.
type Field[T constraints.Unsigned] struct {
	Shift uint8
	Width uint8
}

// Mask returns the in-place mask of the field.
func (f Field[T]) Mask() T {
	var one T = 1
	return ((one << f.Width) - 1) << f.Shift
}

// Get extracts the field value from word.
func (f Field[T]) Get(word T) T {
	return (word & f.Mask()) >> f.Shift
}

// Set returns word with the field replaced by v. Bits of v above the
// field width are discarded.
func (f Field[T]) Set(word, v T) T {
	return word&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// Bit builds a single-bit field.
func Bit[T constraints.Unsigned](pos uint8) Field[T] {
	return Field[T]{Shift: pos, Width: 1}
}

func boolBits[T constraints.Unsigned](b bool) T {
	if b {
		return 1
	}
	return 0
}
