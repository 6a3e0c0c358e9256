package reconcile

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trustlogix-labs/atlan-sync/internal/atlan"
	"github.com/trustlogix-labs/atlan-sync/internal/normalize"
)

const metadataPolicyName = "TrustLogix Governance - View Custom Metadata"

// EnsureMetadataPolicy grants a persona visibility of the TrustLogix
// metadata by creating one allow policy scoped to every known
// connection. Without it the catalog hides the metadata from readers.
// When personaName is empty the persona named "Default" is used, or the
// first persona found. Best effort: every failure folds into the
// returned warnings, never an error, because persona management needs
// admin scopes many deployments do not hand to this token.
func EnsureMetadataPolicy(ctx context.Context, client *atlan.Client, personaName string) []string {
	personas, err := client.SearchByType(ctx, []string{"Persona"}, []string{"name", "qualifiedName"})
	if err != nil {
		return []string{fmt.Sprintf("persona search: %v", err)}
	}
	persona, warning := pickPersona(personas, personaName)
	if warning != "" {
		return []string{warning}
	}

	// An existing TrustLogix policy on the persona means a previous run
	// already set this up.
	existing, err := client.ReferredEntityNames(ctx, persona.GUID)
	if err != nil {
		return []string{fmt.Sprintf("persona %q policies: %v", persona.StringAttribute("name"), err)}
	}
	for _, name := range existing {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "trustlogix") || strings.Contains(lower, "tlx-view") {
			return nil
		}
	}

	connections, err := client.SearchByType(ctx, []string{"Connection"}, []string{"name", "qualifiedName"})
	if err != nil {
		return []string{fmt.Sprintf("connection search: %v", err)}
	}
	var resources []string
	for _, conn := range connections {
		if qn := conn.StringAttribute("qualifiedName"); qn != "" {
			resources = append(resources, "entity:"+qn)
		}
	}
	if len(resources) == 0 {
		return []string{fmt.Sprintf("no connections in catalog, metadata policy for persona %q not created", persona.StringAttribute("name"))}
	}

	suffix := md5.Sum([]byte(persona.GUID))
	policy := map[string]any{
		"typeName": "AuthPolicy",
		"attributes": map[string]any{
			"name":              metadataPolicyName,
			"qualifiedName":     strings.TrimSuffix(persona.StringAttribute("qualifiedName"), "/") + "/metadata/tlx-view-" + hex.EncodeToString(suffix[:])[:8],
			"policyType":        "allow",
			"policyCategory":    "persona",
			"policySubCategory": "metadata",
			"policyServiceName": "atlas",
			"policyActions": []string{
				"persona-asset-read",
				"persona-business-update-metadata",
			},
			"policyResources":  resources,
			"policyConditions": []any{},
			"isPolicyEnabled":  true,
			"policyPriority":   0,
		},
		"relationshipAttributes": map[string]any{
			"accessControl": map[string]any{
				"typeName": "Persona",
				"guid":     persona.GUID,
			},
		},
	}
	if err := client.SaveEntities(ctx, []map[string]any{policy}); err != nil {
		return []string{fmt.Sprintf("metadata policy for persona %q (%d connection(s)): %v",
			persona.StringAttribute("name"), len(resources), err)}
	}
	slog.Info("created metadata policy",
		"persona", persona.StringAttribute("name"), "connections", len(resources))
	return nil
}

// pickPersona selects by name when one is configured, otherwise prefers
// the persona named Default and falls back to the first one listed.
func pickPersona(personas []atlan.Entity, personaName string) (atlan.Entity, string) {
	if personaName != "" {
		for _, candidate := range personas {
			if normalize.EqualFoldTrimmed(candidate.StringAttribute("name"), personaName) {
				return candidate, ""
			}
		}
		return atlan.Entity{}, fmt.Sprintf("persona %q not found", personaName)
	}
	for _, candidate := range personas {
		if normalize.EqualFoldTrimmed(candidate.StringAttribute("name"), "Default") {
			return candidate, ""
		}
	}
	if len(personas) > 0 {
		return personas[0], ""
	}
	return atlan.Entity{}, "no personas in catalog, metadata stays hidden from readers"
}
