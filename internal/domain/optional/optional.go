// Package optional distinguishes an absent patch field from a present zero value.
package optional

// Value holds a T that may or may not have been supplied.
type Value[T any] struct {
	value T
	set   bool
}

func Of[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

func None[T any]() Value[T] {
	return Value[T]{}
}

func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// OrElse returns the held value when present, otherwise fallback.
func (v Value[T]) OrElse(fallback T) T {
	if v.set {
		return v.value
	}
	return fallback
}

// Apply writes the held value into dst when present.
func (v Value[T]) Apply(dst *T) bool {
	if !v.set {
		return false
	}
	*dst = v.value
	return true
}
