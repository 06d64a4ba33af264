package session

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone      = errors.New("phone number must be in international format, e.g. +15551234567")
	ErrPairingInProgress = errors.New("pairing is already in progress")
	ErrAlreadyConnected  = errors.New("session is already connected")
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone returns the digits without a leading plus.
func NormalizePhone(raw string) (string, error) {
	p := phoneSeparators.Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return strings.TrimPrefix(p, "+"), nil
}
