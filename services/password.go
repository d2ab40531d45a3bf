package services

import (
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

// PasswordCheck is the per-criterion result shown next to a password field.
type PasswordCheck struct {
	Length    bool `json:"length"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Digit     bool `json:"digit"`
	Special   bool `json:"special"`
	Matches   bool `json:"matches"`
}

func (c PasswordCheck) Valid() bool {
	return c.Length && c.Uppercase && c.Lowercase && c.Digit && c.Special && c.Matches
}

// CheckPassword evaluates password against every strength rule and the confirmation.
func CheckPassword(password, confirm string) PasswordCheck {
	c := PasswordCheck{
		Length:  utf8.RuneCountInString(password) >= minPasswordLength,
		Matches: password != "" && password == confirm,
	}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.Uppercase = true
		case unicode.IsLower(r):
			c.Lowercase = true
		case unicode.IsDigit(r):
			c.Digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			c.Special = true
		}
	}
	return c
}
