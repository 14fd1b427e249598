package entities

import "strings"

// Language is the reference table profile languages point to.
type Language struct {
	Code           string `gorm:"primaryKey"`
	Name           string
	NormalizedName string `gorm:"index"`
}

func NewLanguage(code, name string) Language {
	return Language{
		Code:           NormalizeLanguageKey(code),
		Name:           name,
		NormalizedName: NormalizeLanguageKey(name),
	}
}

func NormalizeLanguageKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
