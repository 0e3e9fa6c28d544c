package utils

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NanoidSize is the length of row ids. Image keys use shorter ids.
var NanoidSize = 32

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}

// ValidID reports whether id could have come from NanoID. Path parameters
// are checked with it before touching the database.
func ValidID(id string) bool {
	if len(id) != NanoidSize {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(nanoidAlphabet, r) {
			return false
		}
	}
	return true
}
