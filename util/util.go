// Package util holds small helpers that don't belong to any part of the compositor
package util

// Unpack copies the leading elements of from into the given variables, in order.
// Variables without a matching element keep their value, surplus elements are dropped
func Unpack[T any](from []T, into ...*T) {
	for i := 0; i < min(len(from), len(into)); i++ {
		*into[i] = from[i]
	}
}
