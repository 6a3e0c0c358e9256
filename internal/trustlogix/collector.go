package trustlogix

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trustlogix-labs/atlan-sync/internal/restclient"
)

// Hierarchy levels.
const (
	LevelAccount  = "account"
	LevelDatabase = "database"
	LevelSchema   = "schema"
	LevelTable    = "table"
)

// Node is one hierarchy node under an account with its normalized
// entitlements. FullyQualifiedName is unique within an account.
type Node struct {
	Level              string
	Name               string
	FullyQualifiedName string
	Entitlements       []Entitlement
	Children           []*Node
}

// ScanResult is everything collected for one account in one run.
type ScanResult struct {
	Account  Account
	Tree     *Node
	Alerts   []map[string]any
	Warnings []string
}

// The schema object-type identifier varies across deployments; candidates
// are tried in order and the first call that is not rejected wins.
var schemaObjectTypeCandidates = []string{"SCHEMA", "DATABASE_SCHEMA", "NAMESPACE"}

// Collector walks one account's hierarchy: databases first, then schemas,
// then tables, each level fetching its own entitlements. Child queries need
// the parent's fully-qualified name, so levels are strictly ordered.
type Collector struct {
	Client *Client
	// DatabaseFilter optionally restricts the walk to named databases.
	DatabaseFilter []string
}

func (c *Collector) Scan(ctx context.Context, account Account) (ScanResult, error) {
	result := ScanResult{
		Account: account,
		Tree: &Node{
			Level: LevelAccount,
			Name:  account.Name,
		},
	}

	alerts, err := c.Client.ListAlerts(ctx, account.ID)
	if err != nil {
		return result, fmt.Errorf("account %s alerts: %w", account.Name, err)
	}
	result.Alerts = alerts

	databases, err := c.Client.ListDatabases(ctx, account.ID)
	if err != nil {
		return result, fmt.Errorf("account %s databases: %w", account.Name, err)
	}

	for _, db := range databases {
		if !c.databaseAllowed(db.Name) {
			continue
		}
		dbNode := &Node{
			Level:              LevelDatabase,
			Name:               db.Name,
			FullyQualifiedName: fqnOrName(db),
		}
		dbNode.Entitlements = c.fetchEntitlements(ctx, &result, account.ID, "DATABASE", db.Name, dbNode.FullyQualifiedName)

		schemas, err := c.Client.ListSchemas(ctx, account.ID, db.Name)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("account %s database %s schemas: %v", account.Name, db.Name, err))
			result.Tree.Children = append(result.Tree.Children, dbNode)
			continue
		}

		for _, schema := range schemas {
			schemaNode := &Node{
				Level:              LevelSchema,
				Name:               schema.Name,
				FullyQualifiedName: fqnOrName(schema),
			}
			schemaNode.Entitlements = c.fetchSchemaEntitlements(ctx, &result, account.ID, schemaNode.FullyQualifiedName)

			tables, err := c.Client.ListTables(ctx, account.ID, schemaNode.FullyQualifiedName)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("account %s schema %s tables: %v", account.Name, schemaNode.FullyQualifiedName, err))
				dbNode.Children = append(dbNode.Children, schemaNode)
				continue
			}
			for _, table := range tables {
				tableNode := &Node{
					Level:              LevelTable,
					Name:               table.Name,
					FullyQualifiedName: fqnOrName(table),
				}
				tableNode.Entitlements = c.fetchEntitlements(ctx, &result, account.ID, "TABLE", tableNode.FullyQualifiedName, tableNode.FullyQualifiedName)
				schemaNode.Children = append(schemaNode.Children, tableNode)
			}
			dbNode.Children = append(dbNode.Children, schemaNode)
		}
		result.Tree.Children = append(result.Tree.Children, dbNode)
	}

	return result, nil
}

// fetchEntitlements isolates per-node failures: the node proceeds with an
// empty entitlement list and a recorded warning, siblings continue.
func (c *Collector) fetchEntitlements(ctx context.Context, result *ScanResult, accountID, objectType, objectName, fqn string) []Entitlement {
	entitlements, err := c.Client.ListEntitlements(ctx, accountID, objectType, objectName)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("entitlements for %s %s: %v", objectType, fqn, err))
		slog.Debug("entitlement fetch failed", "account", result.Account.Name, "object_type", objectType, "object", fqn, "err", err)
		return nil
	}
	return entitlements
}

func (c *Collector) fetchSchemaEntitlements(ctx context.Context, result *ScanResult, accountID, schemaFQN string) []Entitlement {
	var lastErr error
	for _, candidate := range schemaObjectTypeCandidates {
		entitlements, err := c.Client.ListEntitlements(ctx, accountID, candidate, schemaFQN)
		if err == nil {
			return entitlements
		}
		lastErr = err
		if restclient.IsValidation(err) {
			continue
		}
		break
	}
	if ctx.Err() != nil {
		return nil
	}
	result.Warnings = append(result.Warnings, fmt.Sprintf("entitlements for SCHEMA %s: %v", schemaFQN, lastErr))
	return nil
}

func (c *Collector) databaseAllowed(name string) bool {
	if len(c.DatabaseFilter) == 0 {
		return true
	}
	for _, allowed := range c.DatabaseFilter {
		if allowed == name {
			return true
		}
	}
	return false
}

func fqnOrName(obj metadataObject) string {
	if obj.FullyQualifiedName != "" {
		return obj.FullyQualifiedName
	}
	return obj.Name
}
