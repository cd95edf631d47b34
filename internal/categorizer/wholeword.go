package categorizer

import (
	"regexp"
	"strings"
	"sync"
)

// wordExprs caches compiled word-boundary expressions per keyword so the
// hot path never recompiles (keyword -> *regexp.Regexp).
var wordExprs sync.Map

// wordExpr returns the compiled `\b<keyword>\b` expression for a keyword.
func wordExpr(keyword string) *regexp.Regexp {
	key := strings.ToLower(keyword)
	if cached, ok := wordExprs.Load(key); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
	wordExprs.Store(key, re)
	return re
}

// ContainsWholeWord reports whether keyword occurs in text on full word
// boundaries. Matching is case-insensitive. Used for triggers that are
// substrings of unrelated longer words ("visor" in "advisor", "nps" in
// "snps", "charged" in "discharged"), where plain containment would fire
// falsely.
func ContainsWholeWord(text, keyword string) bool {
	if keyword == "" || text == "" {
		return false
	}
	return wordExpr(keyword).MatchString(strings.ToLower(text))
}
