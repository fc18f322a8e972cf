package library

import "strings"

// Shelve returns titles joined in shelf order.
func Shelve(titles ...string) string {
	return strings.Join(titles, " | ")
}
