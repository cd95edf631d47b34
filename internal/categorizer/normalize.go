package categorizer

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes characters and strips combining marks so that
// accented forms in imported documents ("café", "naïve") match their plain
// dictionary spellings.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText strips diacritics from text. Imported PDF/DOCX content often
// carries accented characters and the dictionaries are plain ASCII.
// Returns the input unchanged if the transform fails.
func NormalizeText(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		return text
	}
	return folded
}
