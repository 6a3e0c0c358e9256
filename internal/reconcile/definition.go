package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trustlogix-labs/atlan-sync/internal/atlan"
	"github.com/trustlogix-labs/atlan-sync/internal/governance"
)

// Definition is the resolved governance business-metadata definition:
// the metastore's hashed internal name plus the display-name to
// internal-name mapping for its attributes.
type Definition struct {
	Name      string
	AttrNames map[string]string
}

// EnsureDefinition creates or migrates the governance definition and
// resolves its hashed names. A definition still carrying the legacy
// display name is renamed in place so existing attribute values survive;
// attributes added since are appended as optional.
func EnsureDefinition(ctx context.Context, client *atlan.Client) (Definition, error) {
	def, found, err := client.FindBusinessMetadataDef(ctx, governance.DefDisplayName, governance.LegacyDefDisplayName)
	if err != nil {
		return Definition{}, fmt.Errorf("find governance definition: %w", err)
	}

	if !found {
		create := atlan.BusinessMetadataDef{
			Category:      "BUSINESS_METADATA",
			DisplayName:   governance.DefDisplayName,
			Description:   "Access risk posture synced from TrustLogix.",
			AttributeDefs: governance.AttributeDefs(),
		}
		if err := client.CreateBusinessMetadataDef(ctx, create); err != nil {
			return Definition{}, fmt.Errorf("create governance definition: %w", err)
		}
		// Re-read to learn the hashed names the metastore assigned.
		def, found, err = client.FindBusinessMetadataDef(ctx, governance.DefDisplayName)
		if err != nil || !found {
			return Definition{}, fmt.Errorf("read back governance definition: %w", err)
		}
		slog.Info("created governance definition", "name", def.Name)
		return resolveDefinition(def), nil
	}

	changed := false
	if def.DisplayName == governance.LegacyDefDisplayName {
		def.DisplayName = governance.DefDisplayName
		changed = true
		slog.Info("renaming legacy governance definition", "name", def.Name)
	}

	existing := make(map[string]struct{}, len(def.AttributeDefs))
	for _, attr := range def.AttributeDefs {
		existing[attr.DisplayName] = struct{}{}
	}
	for _, attr := range governance.AttributeDefs() {
		if _, ok := existing[attr.DisplayName]; ok {
			continue
		}
		// Appending to a live definition must not invalidate assets
		// written by an older release.
		attr.IsOptional = true
		def.AttributeDefs = append(def.AttributeDefs, attr)
		changed = true
		slog.Info("adding governance attribute", "attribute", attr.DisplayName)
	}

	if changed {
		if err := client.UpdateBusinessMetadataDef(ctx, def); err != nil {
			return Definition{}, fmt.Errorf("update governance definition: %w", err)
		}
		def, found, err = client.FindBusinessMetadataDef(ctx, governance.DefDisplayName)
		if err != nil || !found {
			return Definition{}, fmt.Errorf("read back governance definition: %w", err)
		}
	}
	return resolveDefinition(def), nil
}

func resolveDefinition(def atlan.BusinessMetadataDef) Definition {
	out := Definition{
		Name:      def.Name,
		AttrNames: make(map[string]string, len(def.AttributeDefs)),
	}
	for _, attr := range def.AttributeDefs {
		out.AttrNames[attr.DisplayName] = attr.Name
	}
	return out
}

// EnsureTags registers classification typedefs for every desired tag not
// yet known to the metastore.
func EnsureTags(ctx context.Context, client *atlan.Client, tags []governance.Tag) error {
	existing, err := client.ListClassificationDefs(ctx)
	if err != nil {
		return fmt.Errorf("list classification defs: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, def := range existing {
		known[def.Name] = struct{}{}
		known[def.DisplayName] = struct{}{}
	}

	var missing []atlan.ClassificationDef
	seen := make(map[string]struct{})
	for _, tag := range tags {
		if _, ok := known[tag.ID]; ok {
			continue
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		missing = append(missing, atlan.ClassificationDef{
			Category:    "CLASSIFICATION",
			Name:        tag.ID,
			DisplayName: tag.ID,
			Description: tag.DisplayName + " (TrustLogix)",
			Options:     map[string]string{"color": tag.Color},
		})
	}
	if len(missing) == 0 {
		return nil
	}
	if _, err := client.CreateClassificationDefs(ctx, missing); err != nil {
		return fmt.Errorf("create classification defs: %w", err)
	}
	slog.Info("created classification defs", "count", len(missing))
	return nil
}

// EnsureBadges creates or updates the badge entities bound to the
// governance attributes. Badge qualified names are derived from the
// hashed definition and attribute names, so recreating the definition
// recreates the badges.
func EnsureBadges(ctx context.Context, client *atlan.Client, def Definition) error {
	var entities []map[string]any
	for _, badge := range governance.BadgeDefs() {
		attrName, ok := def.AttrNames[badge.AttributeName]
		if !ok {
			return fmt.Errorf("badge %q: attribute %q not in definition", badge.DisplayName, badge.AttributeName)
		}
		target := def.Name + "." + attrName

		conditions := make([]map[string]any, 0, len(badge.Conditions))
		for _, cond := range badge.Conditions {
			conditions = append(conditions, map[string]any{
				"badgeConditionOperator": cond.Operator,
				"badgeConditionValue":    cond.Value,
				"badgeConditionColorhex": cond.Color,
			})
		}
		entities = append(entities, map[string]any{
			"typeName": "Badge",
			"attributes": map[string]any{
				"name":                   badge.DisplayName,
				"qualifiedName":          "badges/global/" + target,
				"badgeMetadataAttribute": target,
				"badgeConditions":        conditions,
			},
		})
	}
	if err := client.SaveEntities(ctx, entities); err != nil {
		return fmt.Errorf("save badges: %w", err)
	}
	return nil
}
