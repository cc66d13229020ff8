package domain

import (
	"strings"
	"time"
)

// Category represents a service category customers check in against.
type Category struct {
	ID                   string
	Name                 string
	IsActive             bool
	EstimatedWaitMinutes int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TokenCode derives the token prefix from a category name: the first
// three characters, uppercased. Shorter names use the whole name.
func TokenCode(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}

// Code returns the category's token prefix.
func (c *Category) Code() string {
	return TokenCode(c.Name)
}
