package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	countryPrefix    = "55"
	localPhoneMaxLen = 11 // area code + 9-digit mobile
)

// Member is an external identity. This service only reads it.
type Member struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

// PhoneCandidates returns the digit-only forms a stored phone may take for the
// given input: with and without the 55 country prefix. Empty input yields nil.
func PhoneCandidates(phone string) []string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 0 {
		return nil
	}

	d := string(digits)
	if strings.HasPrefix(d, countryPrefix) && len(d) > localPhoneMaxLen {
		return []string{d, strings.TrimPrefix(d, countryPrefix)}
	}
	return []string{d, countryPrefix + d}
}
