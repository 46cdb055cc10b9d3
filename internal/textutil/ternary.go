package textutil

// Ternary returns a when cond is true and b otherwise. Used to keep table
// cell expressions on one line.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
