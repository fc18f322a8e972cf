package sink

// Drain has no tests on purpose.
func Drain(items []string) int {
	return len(items)
}
