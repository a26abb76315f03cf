package common

import (
	"fmt"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// ContainsString reports whether s is in list.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any element of values is in list.
func ContainsAny(list []string, values []string) bool {
	for _, v := range values {
		if ContainsString(list, v) {
			return true
		}
	}
	return false
}
