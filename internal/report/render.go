package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"OpportunityRadar/internal/domain"
)

const (
	humanTopN  = 20
	promptTopN = 30
	dateLayout = "2006-01-02"
)

// renderHuman produces the markdown digest shown to people: headline stats,
// the top opportunities by score and a per-source breakdown.
func renderHuman(opportunities []domain.Opportunity, start, end time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Opportunity Report %s — %s\n\n", start.Format(dateLayout), end.Format(dateLayout))

	if len(opportunities) == 0 {
		b.WriteString("No opportunities detected in this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d opportunities detected, average score %.1f.\n\n", len(opportunities), averageScore(opportunities))

	b.WriteString("## Top opportunities\n\n")
	for i, opp := range top(opportunities, humanTopN) {
		fmt.Fprintf(&b, "%d. **%s** (score %d, %s)\n", i+1, opp.Title, opp.Score, opp.SourceType)
		if opp.SourceURL != "" {
			fmt.Fprintf(&b, "   %s\n", opp.SourceURL)
		}
		if len(opp.Signals) > 0 {
			fmt.Fprintf(&b, "   signals: %s\n", strings.Join(opp.Signals, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## By source\n\n")
	for _, line := range sourceBreakdown(opportunities) {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return b.String()
}

// renderPrompt produces the machine-facing artifact handed to the AI
// summarizer: compact, one block per opportunity, descriptions included.
func renderPrompt(opportunities []domain.Opportunity, start, end time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are analyzing business opportunities for an independent software developer.\n")
	fmt.Fprintf(&b, "Period: %s to %s. Total items: %d.\n\n", start.Format(dateLayout), end.Format(dateLayout), len(opportunities))
	b.WriteString("Identify recurring problems, concrete product ideas and which items deserve follow-up. Be specific.\n\n")

	if len(opportunities) == 0 {
		b.WriteString("No items were detected in this period.\n")
		return b.String()
	}

	for i, opp := range top(opportunities, promptTopN) {
		fmt.Fprintf(&b, "### Item %d\n", i+1)
		fmt.Fprintf(&b, "Title: %s\nSource: %s\nScore: %d\n", opp.Title, opp.SourceType, opp.Score)
		if len(opp.Signals) > 0 {
			fmt.Fprintf(&b, "Signals: %s\n", strings.Join(opp.Signals, ", "))
		}
		if opp.Description != "" {
			fmt.Fprintf(&b, "Text: %s\n", opp.Description)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// top returns at most n opportunities ordered by score descending. The input
// slice is not modified.
func top(opportunities []domain.Opportunity, n int) []domain.Opportunity {
	sorted := make([]domain.Opportunity, len(opportunities))
	copy(sorted, opportunities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func averageScore(opportunities []domain.Opportunity) float64 {
	if len(opportunities) == 0 {
		return 0
	}
	var sum int
	for _, opp := range opportunities {
		sum += opp.Score
	}
	return float64(sum) / float64(len(opportunities))
}

// sourceBreakdown renders one "type: count (top score N)" line per source
// type, sorted by count descending then name.
func sourceBreakdown(opportunities []domain.Opportunity) []string {
	counts := make(map[string]int)
	best := make(map[string]int)
	for _, opp := range opportunities {
		counts[opp.SourceType]++
		if opp.Score > best[opp.SourceType] {
			best[opp.SourceType] = opp.Score
		}
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	lines := make([]string, 0, len(types))
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("%s: %d (top score %d)", t, counts[t], best[t]))
	}
	return lines
}

// firstParagraph extracts the first non-heading paragraph of text, truncated
// to maxLen runes on a word boundary.
func firstParagraph(text string, maxLen int) string {
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}

		flat := strings.Join(strings.Fields(block), " ")
		if len(flat) <= maxLen {
			return flat
		}

		cut := flat[:maxLen]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		return cut + "…"
	}
	return ""
}
