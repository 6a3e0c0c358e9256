// Package governance derives the desired Atlan state for an account from
// its risk summary. Everything here is pure: the same summary always
// yields the same desired state, which is what makes repeated runs
// converge instead of drift.
package governance

import (
	"fmt"
	"strings"
	"time"

	"github.com/trustlogix-labs/atlan-sync/internal/risk"
)

const (
	BannerIssue       = "issue"
	BannerWarning     = "warning"
	BannerInformation = "information"
)

const maxDetailLines = 50

// Tag is one classification to hold on an asset.
type Tag struct {
	ID          string
	DisplayName string
	Color       string
}

// Banner is the announcement derived from the risk posture.
type Banner struct {
	Type    string
	Title   string
	Message string
}

// DesiredState is the complete set of governance annotations for every
// asset matched to one account. Attributes are keyed by attribute display
// name; the writer maps them to the metastore's hashed internal names.
type DesiredState struct {
	Attributes map[string]any
	Tags       []Tag
	Banner     Banner
}

// Desired computes the target state for an account from its merged risk
// summary. scannedAt is stamped into the Last Scanned attribute.
func Desired(summary risk.Summary, alerts []risk.Alert, scannedAt time.Time) DesiredState {
	return DesiredState{
		Attributes: map[string]any{
			AttrTotalRisks:     summary.Total,
			AttrHighSeverity:   summary.High,
			AttrMediumSeverity: summary.Medium,
			AttrLowSeverity:    summary.Low,
			AttrRiskCategories: categoriesValue(summary),
			AttrLastScanned:    scannedAt.UTC().Format(time.RFC3339),
			AttrScanStatus:     ScanStatus(summary),
			AttrRiskDetails:    riskDetails(summary, alerts),
		},
		Tags:   DesiredTags(summary),
		Banner: DesiredBanner(summary, scannedAt),
	}
}

// ScanStatus is the headline verdict shown in the asset overview.
func ScanStatus(summary risk.Summary) string {
	switch {
	case summary.Total == 0:
		return "✓ TrustLogix Data Access Governance Verified"
	case summary.High == 0:
		return fmt.Sprintf("%d Risk(s) Found", summary.Total)
	default:
		return fmt.Sprintf("⚠ %d High | %d Med | %d Low", summary.High, summary.Medium, summary.Low)
	}
}

// DesiredTags is the category tags plus exactly one posture rollup.
func DesiredTags(summary risk.Summary) []Tag {
	var out []Tag
	for _, category := range summary.Categories {
		out = append(out, Tag{
			ID:          TagID(category),
			DisplayName: risk.DisplayCategory(category),
			Color:       tagColor(category),
		})
	}
	switch {
	case summary.High > 0:
		out = append(out, Tag{ID: TagID("High Risk"), DisplayName: "High Risk", Color: colorRed})
	case summary.Total > 0:
		out = append(out, Tag{ID: TagID("Risks Detected"), DisplayName: "Risks Detected", Color: colorOrange})
	default:
		out = append(out, Tag{ID: TagID("Verified"), DisplayName: "Verified", Color: colorGreen})
	}
	return out
}

// DesiredBanner derives the announcement. The body always carries the
// numeric breakdown, the active category list, and the scan timestamp,
// so the banner alone tells the whole story without opening the
// metadata panel.
func DesiredBanner(summary risk.Summary, scannedAt time.Time) Banner {
	stamp := "Last scanned: " + scannedAt.UTC().Format(time.RFC3339)
	switch {
	case summary.Total == 0:
		return Banner{
			Type:    BannerInformation,
			Title:   "TrustLogix: Data Access Governance Verified",
			Message: "No access risks detected. Data access governance verified. " + stamp,
		}
	case summary.High > 0:
		lines := []string{fmt.Sprintf("⚠ %d total risk(s): %d high, %d medium, %d low",
			summary.Total, summary.High, summary.Medium, summary.Low)}
		if cats := bannerCategories(summary); cats != "" {
			lines = append(lines, "Categories: "+cats)
		}
		lines = append(lines, stamp)
		return Banner{
			Type:    BannerIssue,
			Title:   fmt.Sprintf("TrustLogix: %d High Severity Risk(s) Detected", summary.High),
			Message: strings.Join(lines, "\n"),
		}
	default:
		lines := []string{fmt.Sprintf("%d total risk(s): %d medium, %d low severity",
			summary.Total, summary.Medium, summary.Low)}
		if cats := bannerCategories(summary); cats != "" {
			lines = append(lines, "Categories: "+cats)
		}
		lines = append(lines, stamp)
		return Banner{
			Type:    BannerWarning,
			Title:   fmt.Sprintf("TrustLogix: %d Risk(s) Detected", summary.Total),
			Message: strings.Join(lines, "\n"),
		}
	}
}

// bannerCategories lists each active category with its count, in
// first-seen order.
func bannerCategories(summary risk.Summary) string {
	parts := make([]string, 0, len(summary.Categories))
	for _, category := range summary.Categories {
		parts = append(parts, fmt.Sprintf("%s (%d)", risk.DisplayCategory(category), summary.CategoryCounts[category]))
	}
	return strings.Join(parts, ", ")
}

func categoriesValue(summary risk.Summary) string {
	if len(summary.Categories) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(summary.Categories))
	for _, category := range summary.Categories {
		parts = append(parts, risk.DisplayCategory(category))
	}
	return strings.Join(parts, ", ")
}

// riskDetails opens with the per-category count breakdown, then lists
// individual findings up to the line cap.
func riskDetails(summary risk.Summary, alerts []risk.Alert) string {
	if len(alerts) == 0 {
		return "No risks detected. TrustLogix data access governance verified."
	}
	var b strings.Builder
	for _, category := range summary.Categories {
		fmt.Fprintf(&b, "%s: %d\n", risk.DisplayCategory(category), summary.CategoryCounts[category])
	}
	b.WriteByte('\n')
	for i, alert := range alerts {
		if i == maxDetailLines {
			fmt.Fprintf(&b, "… and %d more", len(alerts)-maxDetailLines)
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", alert.Severity, risk.DisplayCategory(alert.Category))
		if alert.Details != "" {
			b.WriteString(": " + alert.Details)
		}
		if alert.Recommendation != "" {
			b.WriteString(" | recommended: " + alert.Recommendation)
		}
	}
	return b.String()
}
