package util

// Identity returns v.
func Identity(v int) int { return v }
