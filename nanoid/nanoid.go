// Package nanoid generates entity identifiers.
package nanoid

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet       = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	PrimaryKeySize = 16
)

// PrimaryKey returns a new primary key.
func PrimaryKey() string {
	return gonanoid.MustGenerate(alphabet, PrimaryKeySize)
}

// String generates an id of the given length, PrimaryKeySize by default.
func String(l ...int) string {
	size := PrimaryKeySize
	if len(l) > 0 && l[0] > 0 {
		size = l[0]
	}
	return gonanoid.MustGenerate(alphabet, size)
}

// IsPrimaryKey reports whether id looks like a key from PrimaryKey.
func IsPrimaryKey(id string) bool {
	if len(id) != PrimaryKeySize {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
