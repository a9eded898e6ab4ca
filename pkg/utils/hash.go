package utils

import (
	"crypto/md5"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// VerdictKey is the cache key for the analysis verdict of a comment text.
func VerdictKey(text string) string {
	return "verdict:" + HashString(text)
}
