package governance

import "github.com/trustlogix-labs/atlan-sync/internal/atlan"

// Business-metadata definition display names. The legacy name is what
// earlier releases created; migration renames it in place so existing
// attribute values survive.
const (
	DefDisplayName       = "TrustLogix Governance"
	LegacyDefDisplayName = "TrustLogix Risk Metadata"
)

// Attribute display names. These double as the keys of
// DesiredState.Attributes.
const (
	AttrTotalRisks     = "Total Risks"
	AttrHighSeverity   = "High Severity"
	AttrMediumSeverity = "Medium Severity"
	AttrLowSeverity    = "Low Severity"
	AttrRiskCategories = "Risk Categories"
	AttrLastScanned    = "Last Scanned"
	AttrScanStatus     = "Scan Status"
	AttrRiskDetails    = "Risk Details"
)

// AttributeDefs is the attribute schema of the governance definition.
// Order matters only for readability in the Atlan UI.
func AttributeDefs() []atlan.AttributeDef {
	overview := map[string]string{"showInOverview": "true"}
	return []atlan.AttributeDef{
		{Name: AttrTotalRisks, DisplayName: AttrTotalRisks, TypeName: "int", IsOptional: true, Cardinality: "SINGLE", Options: overview},
		{Name: AttrHighSeverity, DisplayName: AttrHighSeverity, TypeName: "int", IsOptional: true, Cardinality: "SINGLE", Options: overview},
		{Name: AttrMediumSeverity, DisplayName: AttrMediumSeverity, TypeName: "int", IsOptional: true, Cardinality: "SINGLE"},
		{Name: AttrLowSeverity, DisplayName: AttrLowSeverity, TypeName: "int", IsOptional: true, Cardinality: "SINGLE"},
		{Name: AttrRiskCategories, DisplayName: AttrRiskCategories, TypeName: "string", IsOptional: true, Cardinality: "SINGLE", Options: overview},
		{Name: AttrLastScanned, DisplayName: AttrLastScanned, TypeName: "string", IsOptional: true, Cardinality: "SINGLE"},
		{Name: AttrScanStatus, DisplayName: AttrScanStatus, TypeName: "string", IsOptional: true, Cardinality: "SINGLE", Options: overview},
		{Name: AttrRiskDetails, DisplayName: AttrRiskDetails, TypeName: "string", IsOptional: true, Cardinality: "SINGLE",
			Options: map[string]string{"customType": "textarea"}},
	}
}

// Badge severity colors used by the Atlan UI.
const (
	badgeGreen  = "#047960"
	badgeYellow = "#F7B43D"
	badgeRed    = "#BF1B1B"
)

// BadgeCondition is one coloring rule on a badge. Conditions are applied
// in order and the last matching threshold wins.
type BadgeCondition struct {
	Operator string
	Value    string
	Color    string
}

// BadgeDef binds a badge to one governance attribute.
type BadgeDef struct {
	DisplayName   string
	AttributeName string
	Conditions    []BadgeCondition
}

func BadgeDefs() []BadgeDef {
	return []BadgeDef{
		{
			DisplayName:   "TLX Scan Status",
			AttributeName: AttrScanStatus,
			Conditions: []BadgeCondition{
				{Operator: "eq", Value: "✓ TrustLogix Data Access Governance Verified", Color: badgeGreen},
			},
		},
		{
			DisplayName:   "TLX High Severity",
			AttributeName: AttrHighSeverity,
			Conditions: []BadgeCondition{
				{Operator: "eq", Value: "0", Color: badgeGreen},
				{Operator: "gte", Value: "1", Color: badgeRed},
			},
		},
		{
			DisplayName:   "TLX Total Risks",
			AttributeName: AttrTotalRisks,
			Conditions: []BadgeCondition{
				{Operator: "eq", Value: "0", Color: badgeGreen},
				{Operator: "gte", Value: "1", Color: badgeYellow},
				{Operator: "gte", Value: "5", Color: badgeRed},
			},
		},
	}
}
