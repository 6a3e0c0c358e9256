package atlan

import (
	"context"
	"fmt"
)

// AttributeDef describes one attribute inside a business-metadata
// definition. Options carry Atlan UI hints such as showInOverview.
type AttributeDef struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	TypeName    string            `json:"typeName"`
	IsOptional  bool              `json:"isOptional"`
	Cardinality string            `json:"cardinality,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

// BusinessMetadataDef is an Atlan custom-metadata typedef. The metastore
// replaces display names with hashed internal names on creation, so reads
// must match on DisplayName, not Name.
type BusinessMetadataDef struct {
	Category      string            `json:"category"`
	GUID          string            `json:"guid,omitempty"`
	Name          string            `json:"name,omitempty"`
	DisplayName   string            `json:"displayName"`
	Description   string            `json:"description,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
	AttributeDefs []AttributeDef    `json:"attributeDefs"`
}

// ClassificationDef is an Atlan tag typedef.
type ClassificationDef struct {
	Category    string            `json:"category"`
	GUID        string            `json:"guid,omitempty"`
	Name        string            `json:"name,omitempty"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

type typedefsEnvelope struct {
	BusinessMetadataDefs []BusinessMetadataDef `json:"businessMetadataDefs,omitempty"`
	ClassificationDefs   []ClassificationDef   `json:"classificationDefs,omitempty"`
}

func (c *Client) ListBusinessMetadataDefs(ctx context.Context) ([]BusinessMetadataDef, error) {
	var resp typedefsEnvelope
	if err := c.rest.GetJSON(ctx, c.BaseURL+"/api/meta/types/typedefs?type=business_metadata", &resp); err != nil {
		return nil, err
	}
	return resp.BusinessMetadataDefs, nil
}

// FindBusinessMetadataDef matches on display name; any of the given
// candidates counts so renamed legacy definitions are still found.
func (c *Client) FindBusinessMetadataDef(ctx context.Context, displayNames ...string) (BusinessMetadataDef, bool, error) {
	defs, err := c.ListBusinessMetadataDefs(ctx)
	if err != nil {
		return BusinessMetadataDef{}, false, err
	}
	for _, def := range defs {
		for _, name := range displayNames {
			if def.DisplayName == name {
				return def, true, nil
			}
		}
	}
	return BusinessMetadataDef{}, false, nil
}

func (c *Client) CreateBusinessMetadataDef(ctx context.Context, def BusinessMetadataDef) error {
	payload := typedefsEnvelope{BusinessMetadataDefs: []BusinessMetadataDef{def}}
	return c.rest.PostJSON(ctx, c.BaseURL+"/api/meta/types/typedefs", payload, nil)
}

func (c *Client) UpdateBusinessMetadataDef(ctx context.Context, def BusinessMetadataDef) error {
	if def.Name == "" {
		return fmt.Errorf("business metadata def %q: update requires internal name", def.DisplayName)
	}
	payload := typedefsEnvelope{BusinessMetadataDefs: []BusinessMetadataDef{def}}
	return c.rest.PutJSON(ctx, c.BaseURL+"/api/meta/types/typedefs", payload, nil)
}

func (c *Client) ListClassificationDefs(ctx context.Context) ([]ClassificationDef, error) {
	var resp typedefsEnvelope
	if err := c.rest.GetJSON(ctx, c.BaseURL+"/api/meta/types/typedefs?type=classification", &resp); err != nil {
		return nil, err
	}
	return resp.ClassificationDefs, nil
}

// CreateClassificationDefs registers tag typedefs and returns the created
// definitions with their hashed internal names filled in.
func (c *Client) CreateClassificationDefs(ctx context.Context, defs []ClassificationDef) ([]ClassificationDef, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	payload := typedefsEnvelope{ClassificationDefs: defs}
	var resp typedefsEnvelope
	if err := c.rest.PostJSON(ctx, c.BaseURL+"/api/meta/types/typedefs", payload, &resp); err != nil {
		return nil, err
	}
	return resp.ClassificationDefs, nil
}
