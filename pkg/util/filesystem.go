package util

import (
	"os"
)

// Exists returns whether a path exists on disk. Used to reject a bad input
// path before any output files are created.
func Exists(filePath string) bool {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return false
	}

	return true
}
