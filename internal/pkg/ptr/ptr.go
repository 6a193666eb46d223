package ptr

// Of returns a pointer to a copy of v, for optional fields built from call results.
func Of[T any](v T) *T {
	return &v
}
