package atlan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trustlogix-labs/atlan-sync/internal/restclient"
)

const searchPageSize = 100

// Client talks to the Atlan metastore API.
type Client struct {
	BaseURL string
	rest    *restclient.Client
}

func New(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" {
		return nil, errors.New("atlan base URL is required")
	}
	if apiKey == "" {
		return nil, errors.New("atlan api key is required")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	return &Client{
		BaseURL: baseURL,
		rest:    restclient.New(header),
	}, nil
}

// Entity is one metastore entity as returned by index search.
type Entity struct {
	GUID       string         `json:"guid"`
	TypeName   string         `json:"typeName"`
	Attributes map[string]any `json:"attributes"`
}

func (e Entity) StringAttribute(name string) string {
	if v, ok := e.Attributes[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (e Entity) StringListAttribute(name string) []string {
	raw, ok := e.Attributes[name]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{strings.TrimSpace(v)}
	default:
		return nil
	}
}

// SearchByType pages through index search for the given entity types.
func (c *Client) SearchByType(ctx context.Context, typeNames, attributes []string) ([]Entity, error) {
	var out []Entity
	for offset := 0; ; offset += searchPageSize {
		payload := map[string]any{
			"dsl": map[string]any{
				"from": offset,
				"size": searchPageSize,
				"query": map[string]any{
					"bool": map[string]any{
						"filter": []any{
							map[string]any{"terms": map[string]any{"__typeName.keyword": typeNames}},
						},
					},
				},
			},
			"attributes": attributes,
		}

		var resp struct {
			Entities         []Entity `json:"entities"`
			ApproximateCount int      `json:"approximateCount"`
		}
		if err := c.rest.PostJSON(ctx, c.BaseURL+"/api/meta/search/indexsearch", payload, &resp); err != nil {
			return nil, err
		}
		if len(resp.Entities) == 0 {
			break
		}
		out = append(out, resp.Entities...)
		if offset+searchPageSize >= resp.ApproximateCount {
			break
		}
	}
	return out, nil
}

// WriteBusinessMetadata overwrites the named business-metadata block on an
// entity. Always an overwrite: the attribute set is fully owned by this
// engine once the definition exists.
func (c *Client) WriteBusinessMetadata(ctx context.Context, guid, bmName string, values map[string]any) error {
	endpoint := fmt.Sprintf("%s/api/meta/entity/guid/%s/businessmetadata?isOverwrite=true", c.BaseURL, url.PathEscape(guid))
	return c.rest.PostJSON(ctx, endpoint, map[string]any{bmName: values}, nil)
}

// EntityClassifications returns the classification type names currently on
// an entity.
func (c *Client) EntityClassifications(ctx context.Context, guid string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/meta/entity/guid/%s?minExtInfo=false&ignoreRelationships=true", c.BaseURL, url.PathEscape(guid))

	var resp struct {
		Entity struct {
			Classifications []struct {
				TypeName string `json:"typeName"`
			} `json:"classifications"`
		} `json:"entity"`
	}
	if err := c.rest.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	var out []string
	for _, cls := range resp.Entity.Classifications {
		if cls.TypeName != "" {
			out = append(out, cls.TypeName)
		}
	}
	return out, nil
}

func (c *Client) AddClassifications(ctx context.Context, guid string, typeNames []string) error {
	if len(typeNames) == 0 {
		return nil
	}
	payload := make([]map[string]any, 0, len(typeNames))
	for _, name := range typeNames {
		payload = append(payload, map[string]any{"typeName": name, "propagate": true})
	}
	endpoint := fmt.Sprintf("%s/api/meta/entity/guid/%s/classifications", c.BaseURL, url.PathEscape(guid))
	return c.rest.PostJSON(ctx, endpoint, payload, nil)
}

func (c *Client) RemoveClassification(ctx context.Context, guid, typeName string) error {
	endpoint := fmt.Sprintf("%s/api/meta/entity/guid/%s/classification/%s", c.BaseURL, url.PathEscape(guid), url.PathEscape(typeName))
	return c.rest.Delete(ctx, endpoint)
}

// Announcement is the banner shown at the top of an asset overview.
type Announcement struct {
	Type    string
	Title   string
	Message string
}

// SetAnnouncement sets the banner on an entity. Entity updates require
// typeName, name, and qualifiedName alongside the announcement fields.
func (c *Client) SetAnnouncement(ctx context.Context, typeName, guid, name, qualifiedName string, a Announcement) error {
	if name == "" || qualifiedName == "" {
		return &restclient.ValidationError{
			Status:  http.StatusBadRequest,
			URL:     c.BaseURL + "/api/meta/entity",
			Message: "announcement requires entity name and qualifiedName",
		}
	}
	payload := map[string]any{
		"entity": map[string]any{
			"typeName": typeName,
			"guid":     guid,
			"attributes": map[string]any{
				"name":                name,
				"qualifiedName":       qualifiedName,
				"announcementType":    a.Type,
				"announcementTitle":   a.Title,
				"announcementMessage": a.Message,
			},
		},
	}
	return c.rest.PostJSON(ctx, c.BaseURL+"/api/meta/entity", payload, nil)
}

// SaveEntities creates or updates entities in bulk (badges, policies).
func (c *Client) SaveEntities(ctx context.Context, entities []map[string]any) error {
	if len(entities) == 0 {
		return nil
	}
	return c.rest.PostJSON(ctx, c.BaseURL+"/api/meta/entity/bulk", map[string]any{"entities": entities}, nil)
}

// ReferredEntityNames returns the names of entities related to the given
// one. Used to deduplicate persona policies by name.
func (c *Client) ReferredEntityNames(ctx context.Context, guid string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/meta/entity/guid/%s?minExtInfo=false&ignoreRelationships=false", c.BaseURL, url.PathEscape(guid))

	var resp struct {
		ReferredEntities map[string]struct {
			Attributes struct {
				Name string `json:"name"`
			} `json:"attributes"`
		} `json:"referredEntities"`
	}
	if err := c.rest.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	var out []string
	for _, ref := range resp.ReferredEntities {
		if ref.Attributes.Name != "" {
			out = append(out, ref.Attributes.Name)
		}
	}
	return out, nil
}
