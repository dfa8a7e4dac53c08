package app

import (
	"regexp"
	"strings"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]{1,20}$`)
	codePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// NormalizeName trims and truncates a display name and checks its alphabet.
func NormalizeName(raw string) (string, error) {
	name := truncate(strings.TrimSpace(raw), MaxNameLength)
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	return name, nil
}

// NormalizeRoomCode trims, upper-cases and truncates a session code.
func NormalizeRoomCode(raw string) (string, error) {
	code := truncate(strings.ToUpper(strings.TrimSpace(raw)), MaxRoomCodeLength)
	if !codePattern.MatchString(code) {
		return "", ErrInvalidRoomCode
	}
	return code, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
