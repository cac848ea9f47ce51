// Package id generates short correlation ids that tie together the log lines
// of a single Telegram update or health request.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the kinds of ids the bot emits.
const (
	PrefixUpdate  = "upd"
	PrefixRequest = "req"
)

// alphabet avoids '-' and '_' so the prefix separator stays unambiguous.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	size     = 12
)

// Generate returns "<prefix>-<12 char nanoid>", e.g. "upd-4f9KxQ2mZp0a".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
