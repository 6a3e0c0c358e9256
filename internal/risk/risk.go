package risk

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Severity is the canonical alert severity derived from the scanner's
// numeric code.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityUnknown  Severity = "UNKNOWN"
)

// SeverityFromCode maps the scanner's severity codes to labels. The mapping
// is total: anything outside 1-4 is unknown and excluded from the
// high/medium/low counts while still counting toward the total.
func SeverityFromCode(code string) Severity {
	switch strings.TrimSpace(code) {
	case "1":
		return SeverityCritical
	case "2":
		return SeverityHigh
	case "3":
		return SeverityMedium
	case "4":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Alert is a normalized scanner finding. Category keeps the raw upstream
// string: tag identity derives from it, display formatting is cosmetic only.
type Alert struct {
	Category       string
	Severity       Severity
	Details        string
	Recommendation string
}

// Field-name fallback chains, tried in order, first present non-empty wins.
// The scanner emits different shapes depending on platform configuration.
var (
	severityKeys       = []string{"severity", "severityCode", "riskSeverity"}
	categoryKeys       = []string{"category", "riskCategory", "alertCategory", "type"}
	detailsKeys        = []string{"details", "description", "riskDetails"}
	recommendationKeys = []string{"recommendation", "remediation", "suggestedAction"}
)

// FromPayload normalizes one raw alert payload.
func FromPayload(payload map[string]any) Alert {
	return Alert{
		Category:       firstString(payload, categoryKeys),
		Severity:       SeverityFromCode(firstString(payload, severityKeys)),
		Details:        firstString(payload, detailsKeys),
		Recommendation: firstString(payload, recommendationKeys),
	}
}

func firstString(payload map[string]any, keys []string) string {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok || value == nil {
			continue
		}
		if s := stringify(value); s != "" {
			return s
		}
	}
	return ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Summary is the per-account risk rollup. High combines CRITICAL and HIGH:
// it drives badge color, banner type, and the rollup tag. Categories keeps
// first-seen order so downstream tie-breaking stays deterministic.
type Summary struct {
	Total          int
	High           int
	Medium         int
	Low            int
	Categories     []string
	CategoryCounts map[string]int
}

func Summarize(alerts []Alert) Summary {
	s := Summary{CategoryCounts: make(map[string]int)}
	for _, alert := range alerts {
		s.Total++
		switch alert.Severity {
		case SeverityCritical, SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
		if alert.Category == "" {
			continue
		}
		if _, seen := s.CategoryCounts[alert.Category]; !seen {
			s.Categories = append(s.Categories, alert.Category)
		}
		s.CategoryCounts[alert.Category]++
	}
	return s
}

// Merge folds other into s, preserving s's first-seen category order.
// Used for domain-level rollups.
func (s *Summary) Merge(other Summary) {
	s.Total += other.Total
	s.High += other.High
	s.Medium += other.Medium
	s.Low += other.Low
	if s.CategoryCounts == nil {
		s.CategoryCounts = make(map[string]int)
	}
	for _, category := range other.Categories {
		if _, seen := s.CategoryCounts[category]; !seen {
			s.Categories = append(s.Categories, category)
		}
		s.CategoryCounts[category] += other.CategoryCounts[category]
	}
}

// acronyms are re-uppercased after title-casing in display output.
var acronyms = map[string]struct{}{
	"IT":  {},
	"PII": {},
	"SQL": {},
	"API": {},
}

// DisplayCategory formats a raw category for human display. Purely
// cosmetic: tag identifiers always derive from the raw string.
func DisplayCategory(raw string) string {
	words := strings.Fields(strings.ReplaceAll(strings.TrimSpace(raw), "_", " "))
	for i, word := range words {
		upper := strings.ToUpper(word)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
			continue
		}
		runes := []rune(strings.ToLower(word))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
