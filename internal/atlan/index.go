package atlan

import (
	"context"
	"fmt"

	"github.com/trustlogix-labs/atlan-sync/internal/normalize"
)

// Asset types matched against scanned databases. Database and Schema
// entities carry risk context too, not just tables.
var assetTypeNames = []string{"Table", "View", "MaterialisedView", "Database", "Schema"}

var assetAttributes = []string{
	"name", "qualifiedName", "databaseName", "schemaName",
	"connectionName", "connectionQualifiedName", "domainGUIDs",
}

// Asset is a catalog entity eligible for governance writes.
type Asset struct {
	GUID           string
	TypeName       string
	Name           string
	QualifiedName  string
	DatabaseName   string
	SchemaName     string
	ConnectionName string
	DomainGUIDs    []string
}

// Domain is an Atlan data domain (data mesh grouping).
type Domain struct {
	GUID          string
	Name          string
	QualifiedName string
}

// Index holds the full catalog snapshot for one run. ByDatabase is keyed
// by uppercased database name; assets whose database cannot be determined
// are excluded.
type Index struct {
	ByDatabase map[string][]Asset
	Domains    map[string]Domain
	AssetCount int
}

// BuildIndex fetches every matching asset and data domain up front. One
// snapshot per run: all accounts resolve against the same catalog view.
func BuildIndex(ctx context.Context, c *Client) (*Index, error) {
	entities, err := c.SearchByType(ctx, assetTypeNames, assetAttributes)
	if err != nil {
		return nil, fmt.Errorf("asset search: %w", err)
	}

	idx := &Index{
		ByDatabase: make(map[string][]Asset),
		Domains:    make(map[string]Domain),
	}
	for _, entity := range entities {
		asset := assetFromEntity(entity)
		if asset.GUID == "" {
			continue
		}
		db := databaseNameOf(asset)
		if db == "" {
			continue
		}
		key := normalize.Upper(db)
		idx.ByDatabase[key] = append(idx.ByDatabase[key], asset)
		idx.AssetCount++
	}

	domains, err := c.SearchByType(ctx, []string{"DataDomain"}, []string{"name", "qualifiedName"})
	if err != nil {
		return nil, fmt.Errorf("domain search: %w", err)
	}
	for _, entity := range domains {
		if entity.GUID == "" {
			continue
		}
		idx.Domains[entity.GUID] = Domain{
			GUID:          entity.GUID,
			Name:          entity.StringAttribute("name"),
			QualifiedName: entity.StringAttribute("qualifiedName"),
		}
	}

	return idx, nil
}

// DomainName resolves a domain GUID to its display name.
func (i *Index) DomainName(guid string) (string, bool) {
	d, ok := i.Domains[guid]
	if !ok || d.Name == "" {
		return "", false
	}
	return d.Name, true
}

func assetFromEntity(entity Entity) Asset {
	return Asset{
		GUID:           entity.GUID,
		TypeName:       entity.TypeName,
		Name:           entity.StringAttribute("name"),
		QualifiedName:  entity.StringAttribute("qualifiedName"),
		DatabaseName:   entity.StringAttribute("databaseName"),
		SchemaName:     entity.StringAttribute("schemaName"),
		ConnectionName: entity.StringAttribute("connectionName"),
		DomainGUIDs:    entity.StringListAttribute("domainGUIDs"),
	}
}

// databaseNameOf picks the database key for an asset. Database entities
// are their own database; everything else carries databaseName.
func databaseNameOf(a Asset) string {
	if a.DatabaseName != "" {
		return a.DatabaseName
	}
	if a.TypeName == "Database" {
		return a.Name
	}
	return ""
}
