package model

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest accepted display name, in runes.
const MaxNameLength = 20

var (
	// ErrEmptyName is returned when a name is blank after normalisation.
	ErrEmptyName = errors.New("name is empty")
	// ErrNameTooLong is returned when a name exceeds MaxNameLength runes.
	ErrNameTooLong = errors.New("name too long")
)

// NormalizeName folds compatibility forms, trims and collapses whitespace, and
// enforces the length limit.
func NormalizeName(s string) (string, error) {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return s, nil
}
