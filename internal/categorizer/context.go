package categorizer

import (
	"sort"
	"strings"
)

// Context window geometry and markers.
const (
	contextLinesBefore = 2
	contextLinesAfter  = 2

	// Ellipsis marks a gap between non-adjacent line ranges.
	Ellipsis = "..."

	highlightOpen  = "[["
	highlightClose = "]]"
)

// buildContext assembles the review window: the union of the inclusive
// ranges [i-2, i+2] around each matched line index, clamped to the
// document, in ascending order. Non-adjacent runs are separated by an
// ellipsis line. Matched spans are wrapped in highlight markers.
func buildContext(lines []string, matches map[int][][]int) string {
	show := make(map[int]struct{})
	for idx := range matches {
		for j := idx - contextLinesBefore; j <= idx+contextLinesAfter; j++ {
			if j >= 0 && j < len(lines) {
				show[j] = struct{}{}
			}
		}
	}

	order := make([]int, 0, len(show))
	for idx := range show {
		order = append(order, idx)
	}
	sort.Ints(order)

	out := make([]string, 0, len(order)+1)
	prev := -1
	for _, idx := range order {
		if prev >= 0 && idx > prev+1 {
			out = append(out, Ellipsis)
		}
		line := lines[idx]
		if spans, ok := matches[idx]; ok {
			line = highlightSpans(line, spans)
		}
		out = append(out, line)
		prev = idx
	}

	return strings.Join(out, "\n")
}

// highlightSpans wraps each matched span in highlight markers, substituting
// in reverse order so earlier offsets stay valid. Overlapping spans are
// merged first to avoid nested markers.
func highlightSpans(line string, spans [][]int) string {
	merged := mergeSpans(spans)
	for i := len(merged) - 1; i >= 0; i-- {
		start, end := merged[i][0], merged[i][1]
		line = line[:start] + highlightOpen + line[start:end] + highlightClose + line[end:]
	}
	return line
}

// mergeSpans sorts spans by start offset and merges any that overlap.
func mergeSpans(spans [][]int) [][]int {
	if len(spans) <= 1 {
		return spans
	}

	sorted := make([][]int, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] > sorted[j][1]
	})

	merged := [][]int{{sorted[0][0], sorted[0][1]}}
	for _, span := range sorted[1:] {
		last := merged[len(merged)-1]
		if span[0] <= last[1] {
			if span[1] > last[1] {
				last[1] = span[1]
			}
			continue
		}
		merged = append(merged, []int{span[0], span[1]})
	}
	return merged
}
