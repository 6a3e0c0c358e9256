package trustlogix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/trustlogix-labs/atlan-sync/internal/normalize"
	"github.com/trustlogix-labs/atlan-sync/internal/restclient"
)

const (
	accountsPageSize     = 1000
	entitlementsPageSize = 100
	entitlementsMaxPages = 10
	alertsPageSize       = 500
)

// supported scan platforms; accounts of any other type are skipped.
var supportedPlatforms = map[string]struct{}{
	"snowflake":  {},
	"databricks": {},
}

// Credentials selects the scanner auth mode.
type Credentials struct {
	Method       string // "bearer" or "credentials"
	APIKey       string
	ClientID     string
	ClientSecret string
}

// Client talks to the TrustLogix scanner API.
type Client struct {
	BaseURL  string
	TenantID string

	creds Credentials
	rest  *restclient.Client
}

// Account is one scanned data-platform instance.
type Account struct {
	ID       string
	Name     string
	Platform string
}

func New(baseURL, tenantID string, creds Credentials) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	tenantID = strings.TrimSpace(tenantID)
	if baseURL == "" {
		return nil, errors.New("trustlogix base URL is required")
	}
	if tenantID == "" {
		return nil, errors.New("trustlogix tenant id is required")
	}
	return &Client{
		BaseURL:  baseURL,
		TenantID: tenantID,
		creds:    creds,
	}, nil
}

// Authenticate resolves the bearer token (directly or via the login
// endpoint) and prepares the underlying HTTP client. Must be called before
// any fetch.
func (c *Client) Authenticate(ctx context.Context) error {
	var token string
	switch strings.ToLower(strings.TrimSpace(c.creds.Method)) {
	case "bearer":
		token = strings.TrimSpace(c.creds.APIKey)
		if token == "" {
			return errors.New("trustlogix auth method is 'bearer' but api key is missing")
		}
	case "credentials":
		if c.creds.ClientID == "" || c.creds.ClientSecret == "" {
			return errors.New("trustlogix auth method is 'credentials' but client id or secret is missing")
		}
		resolved, err := c.login(ctx)
		if err != nil {
			return fmt.Errorf("trustlogix login: %w", err)
		}
		token = resolved
	default:
		return fmt.Errorf("trustlogix auth method %q is not supported", c.creds.Method)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("tenantid", c.TenantID)
	c.rest = restclient.New(header)
	return nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	login := restclient.New(http.Header{})
	endpoint := c.BaseURL + "/api/login?userType=TENANT_USER"

	var resp struct {
		Token string `json:"token"`
		Data  struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	payload := map[string]string{
		"loginId":  c.creds.ClientID,
		"password": c.creds.ClientSecret,
	}
	if err := login.PostJSON(ctx, endpoint, payload, &resp); err != nil {
		return "", err
	}
	if resp.Data.Token != "" {
		return resp.Data.Token, nil
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	return "", errors.New("login response carried no token")
}

func (c *Client) ensureClient() error {
	if c.rest == nil {
		return errors.New("trustlogix client is not authenticated")
	}
	return nil
}

// ListAccounts fetches all active accounts and keeps the supported
// platforms. No other filtering: every active account of a supported
// platform is processed.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("status", "Active")
	query.Set("page_size", strconv.Itoa(accountsPageSize))
	query.Set("page_no", "1")
	query.Set("includePolicyCount", "true")

	var resp struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"items"`
	}
	if err := c.rest.GetJSON(ctx, c.BaseURL+"/api/account?"+query.Encode(), &resp); err != nil {
		return nil, err
	}

	var out []Account
	for _, item := range resp.Items {
		platform := normalize.Lower(item.Type)
		if _, ok := supportedPlatforms[platform]; !ok {
			continue
		}
		out = append(out, Account{
			ID:       strings.TrimSpace(item.ID),
			Name:     strings.TrimSpace(item.Name),
			Platform: platform,
		})
	}
	return out, nil
}

type metadataObject struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

func (c *Client) ListDatabases(ctx context.Context, accountID string) ([]metadataObject, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	var out []metadataObject
	endpoint := fmt.Sprintf("%s/api/metadata/%s/databases", c.BaseURL, url.PathEscape(accountID))
	if err := c.rest.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSchemas(ctx context.Context, accountID, databaseName string) ([]metadataObject, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("databaseNames", databaseName)
	var out []metadataObject
	endpoint := fmt.Sprintf("%s/api/metadata/%s/schemas?%s", c.BaseURL, url.PathEscape(accountID), query.Encode())
	if err := c.rest.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTables(ctx context.Context, accountID, schemaFQN string) ([]metadataObject, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("schemaNames", schemaFQN)
	var out []metadataObject
	endpoint := fmt.Sprintf("%s/api/metadata/%s/tables?%s", c.BaseURL, url.PathEscape(accountID), query.Encode())
	if err := c.rest.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntitlements pages through the entitlement endpoint for one object.
// The response splits principals into roles/users/groups arrays with
// deployment-specific field names; normalization happens per record and
// bad records are skipped, never fatal.
func (c *Client) ListEntitlements(ctx context.Context, accountID, objectType, objectName string) ([]Entitlement, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}

	var out []Entitlement
	for page := 1; page <= entitlementsMaxPages; page++ {
		query := url.Values{}
		query.Set("objectType", objectType)
		query.Set("objectName", objectName)
		query.Set("includeChildMetadata", "false")
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(entitlementsPageSize))

		var resp struct {
			Roles      []map[string]any `json:"roles"`
			Users      []map[string]any `json:"users"`
			Groups     []map[string]any `json:"groups"`
			TotalPages int              `json:"totalPages"`
		}
		endpoint := fmt.Sprintf("%s/api/account/%s/entitlements?%s", c.BaseURL, url.PathEscape(accountID), query.Encode())
		if err := c.rest.GetJSON(ctx, endpoint, &resp); err != nil {
			return nil, err
		}

		before := len(out)
		out = appendEntitlements(out, resp.Roles, KindRole)
		out = appendEntitlements(out, resp.Users, KindUser)
		out = appendEntitlements(out, resp.Groups, KindGroup)

		if len(out) == before && page == 1 {
			break
		}
		if page >= resp.TotalPages {
			break
		}
	}
	return out, nil
}

// ListAlerts fetches the account's security alerts. The upstream rejects
// calls missing either pagination parameter, so both are always sent; a
// large page keeps the common case to one call, with a loop for the rest.
func (c *Client) ListAlerts(ctx context.Context, accountID string) ([]map[string]any, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}

	var out []map[string]any
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(alertsPageSize))

		var resp struct {
			Items []map[string]any `json:"items"`
			Total int              `json:"total"`
		}
		endpoint := fmt.Sprintf("%s/api/account/%s/risks?%s", c.BaseURL, url.PathEscape(accountID), query.Encode())
		if err := c.rest.GetJSON(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		if len(out) >= resp.Total {
			break
		}
	}
	return out, nil
}
