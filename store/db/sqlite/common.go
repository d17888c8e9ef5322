package sqlite

import (
	"fmt"
	"strings"
)

// placeholder returns the nth statement placeholder. The driver
// accepts the $N form, which keeps queries shareable with postgres.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n placeholders starting at $1.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
