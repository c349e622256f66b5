package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	separator       = "───────────────────────────────────────────────────────────"
	doubleSeparator = "═══════════════════════════════════════════════════════════"
)

// maxListedFailures caps the per-security failure lines of a run summary
const maxListedFailures = 10

// PrintRunHeader prints a formatted run header
func PrintRunHeader(w io.Writer, title string, cfg brain.RunConfig, source string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, separator)
	PrintKeyValue(w, "Market", cfg.Market, 10)
	PrintKeyValue(w, "Period", fmt.Sprintf("%s ~ %s", contracts.FormatDate(cfg.Start), contracts.FormatDate(cfg.End)), 10)
	PrintKeyValue(w, "Source", source, 10)
	if len(cfg.Symbols) > 0 {
		PrintKeyValue(w, "Symbols", strings.Join(cfg.Symbols, ","), 10)
	}
	fmt.Fprintln(w, separator)
}

// PrintRunSummary prints the statistics of a finished run
func PrintRunSummary(w io.Writer, result *brain.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	if result.Cancelled {
		fmt.Fprintln(w, "  ⚠️  Run cancelled (in-flight date discarded)")
	} else {
		fmt.Fprintln(w, "  ✅ Run completed")
	}
	fmt.Fprintln(w, separator)

	PrintKeyValue(w, "Run ID", result.RunID, 18)
	PrintKeyValue(w, "Model hash", shortHash(result.ModelHash), 18)
	PrintKeyValue(w, "Securities loaded", fmt.Sprintf("%d", result.SecuritiesLoaded), 18)
	PrintKeyValue(w, "Dates ranked", fmt.Sprintf("%d / %d", result.DatesRanked, result.DatesTotal), 18)
	PrintKeyValue(w, "Dates skipped", fmt.Sprintf("%d", len(result.Skipped)), 18)
	PrintKeyValue(w, "Records", fmt.Sprintf("%d", result.Records), 18)
	PrintKeyValue(w, "Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 18)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "  Signal distribution")
	for _, sig := range []contracts.Signal{contracts.SignalBuy, contracts.SignalNeutral, contracts.SignalSell} {
		n := result.SignalCounts[sig]
		pct := 0.0
		if result.Records > 0 {
			pct = float64(n) / float64(result.Records) * 100
		}
		PrintKeyValue(w, string(sig), fmt.Sprintf("%d (%.1f%%)", n, pct), 18)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "  Excluded security-dates: %d\n", len(result.Failures))
		PrintList(w, summarizeFailures(result.Failures))
	}
	fmt.Fprintln(w, doubleSeparator)
}

// summarizeFailures groups failures by (symbol, reason), largest first
func summarizeFailures(failures []contracts.SecurityFailure) []string {
	type key struct{ symbol, reason string }
	counts := make(map[key]int)
	for _, f := range failures {
		reason := f.Reason
		if f.Date.IsZero() {
			reason = "load: " + reason
		}
		counts[key{f.Symbol, reason}]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}
		return keys[i].reason < keys[j].reason
	})

	lines := make([]string, 0, maxListedFailures+1)
	for i, k := range keys {
		if i == maxListedFailures {
			lines = append(lines, fmt.Sprintf("... %d more", len(keys)-maxListedFailures))
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s ×%d", k.symbol, k.reason, counts[k]))
	}
	return lines
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
