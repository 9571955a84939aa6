// Package sku builds human-readable stock keeping units from club, player
// and size. Codes are deterministic so existing stock can be counted by
// prefix before assigning ordinals.
package sku

import (
	"fmt"
	"strings"
	"unicode"
)

const blankPlayerCode = "BLANK"

// codeFor concatenates the first three letters of every whitespace-
// separated word, uppercased. Words shorter than three letters are taken
// whole, and tokens without letters ("#10") contribute nothing.
// "Real Madrid" -> "REAMAD".
func codeFor(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		taken := 0
		for _, r := range word {
			if !unicode.IsLetter(r) {
				continue
			}
			b.WriteRune(unicode.ToUpper(r))
			taken++
			if taken == 3 {
				break
			}
		}
	}
	return b.String()
}

// playerCode maps blank jerseys (empty name or the literal "No Name") to
// the BLANK code so they share a counting prefix.
func playerCode(player string) string {
	trimmed := strings.TrimSpace(player)
	if trimmed == "" || strings.EqualFold(trimmed, "No Name") {
		return blankPlayerCode
	}
	return codeFor(trimmed)
}

func sizeCode(size string) string {
	return strings.ToUpper(strings.TrimSpace(size))
}

// Prefix returns the SKU up to and including the trailing dash before the
// ordinal, e.g. "REAMAD-BLANK-L-".
func Prefix(club string, player string, size string) string {
	return fmt.Sprintf("%s-%s-%s-", codeFor(club), playerCode(player), sizeCode(size))
}

// Generate returns the full SKU with the ordinal zero-padded to two
// digits. Ordinals of 100 and above keep their full width.
func Generate(club string, player string, size string, ordinal int) string {
	return fmt.Sprintf("%s%02d", Prefix(club, player, size), ordinal)
}
