// Package membercode generates cooperative member numbers in the form
// BCI-<year>-<code>, e.g. BCI-2026-3F9A1.
package membercode

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Prefix is the cooperative's member number prefix
	Prefix = "BCI"

	// CodeLength is the length of the random suffix
	CodeLength = 5
)

// New generates a member number for the current year
func New() string {
	return NewForYear(time.Now().Year())
}

// NewForYear generates a member number for a given year
func NewForYear(year int) string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:CodeLength]
	return fmt.Sprintf("%s-%d-%s", Prefix, year, code)
}

// Valid reports whether s looks like a member number
func Valid(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	if parts[0] != Prefix {
		return false
	}
	if len(parts[1]) != 4 {
		return false
	}
	for _, r := range parts[1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	if len(parts[2]) != CodeLength {
		return false
	}
	for _, r := range parts[2] {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
