// Package mail is a client for the OpenSRS mail-admin API.
//
// Every call posts a JSON object to {APIURL}/{method} carrying the reseller
// credentials plus the method's parameters. A reply with success=false is
// returned as a Response, not an error.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/transport"
)

// API methods
const (
	MethodAuthenticate  = "authenticate"
	MethodGetDomain     = "get_domain"
	MethodChangeDomain  = "change_domain"
	MethodSearchUsers   = "search_users"
	MethodChangeUser    = "change_user"
	MethodDeleteUser    = "delete_user"
	MethodDeleteDomain  = "delete_domain"
	MethodGetUser       = "get_user"
	MethodRenameUser    = "rename_user"
	MethodRestoreDomain = "restore_domain"
)

// Credentials identify the caller on every request.
type Credentials struct {
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Client   string `json:"client,omitempty" yaml:"client,omitempty"`
}

// Config holds client configuration
type Config struct {
	// APIURL is the base URL; the method name is appended as a path segment
	APIURL      string
	Credentials Credentials

	// Transport defaults to an HTTPS client built from
	// transport.DefaultHTTPSConfig
	Transport transport.Transport
	Logger    *slog.Logger
}

// Response is a decoded mail-admin reply.
type Response struct {
	Success     bool
	Error       string
	ErrorNumber int
	// Fields holds the complete reply object
	Fields map[string]any
}

// Client talks to the mail-admin API. It is safe for concurrent use.
type Client struct {
	apiURL      string
	credentials Credentials
	transport   transport.Transport
	logger      *slog.Logger
}

// NewClient creates a new mail-admin client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, opserr.Configuration("mail", "config is required")
	}
	if cfg.APIURL == "" {
		return nil, opserr.Configuration("mail", "API URL is required")
	}
	if cfg.Credentials.User == "" || cfg.Credentials.Password == "" {
		return nil, opserr.Configuration("mail", "credentials are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tr := cfg.Transport
	if tr == nil {
		httpsCfg := transport.DefaultHTTPSConfig()
		httpsCfg.Logger = logger
		tr = transport.NewHTTPSClient(httpsCfg)
	}

	return &Client{
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		credentials: cfg.Credentials,
		transport:   tr,
		logger:      logger,
	}, nil
}

// Call posts params plus credentials to method and decodes the reply.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (*Response, error) {
	if method == "" {
		return nil, opserr.InvalidArgument("mail", "method is required")
	}

	payload := make(map[string]any, len(params)+1)
	for k, v := range params {
		payload[k] = v
	}
	payload["credentials"] = c.credentials

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, opserr.InvalidArgument("mail", fmt.Sprintf("encoding %s request: %v", method, err))
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	log := c.logger.With(slog.String("method", method))
	log.Debug("sending mail request", "bytes", len(body))

	reply, err := c.transport.Send(ctx, c.apiURL+"/"+method, body, header)
	if err != nil {
		log.Error("mail request failed", "error", err)
		return nil, fmt.Errorf("mail %s: %w", method, err)
	}

	resp, err := decodeResponse(reply)
	if err != nil {
		log.Error("undecodable mail reply", "error", err)
		return nil, fmt.Errorf("mail %s: %w", method, err)
	}

	if !resp.Success {
		log.Warn("mail API reported failure",
			"error_number", resp.ErrorNumber,
			"error_text", resp.Error)
	}
	return resp, nil
}

func decodeResponse(data []byte) (*Response, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, opserr.Format("mail", "reply is not a JSON object", err)
	}
	if fields == nil {
		return nil, opserr.Format("mail", "reply is null", nil)
	}

	resp := &Response{Fields: fields}
	resp.Success, _ = fields["success"].(bool)
	resp.Error, _ = fields["error"].(string)
	if n, ok := fields["error_number"].(float64); ok {
		resp.ErrorNumber = int(n)
	}
	return resp, nil
}

// Authenticate checks the configured credentials.
func (c *Client) Authenticate(ctx context.Context) (*Response, error) {
	return c.Call(ctx, MethodAuthenticate, nil)
}

// GetDomain fetches the settings of a mail domain.
func (c *Client) GetDomain(ctx context.Context, domain string) (*Response, error) {
	if domain == "" {
		return nil, opserr.InvalidArgument("GetDomain", "domain is required")
	}
	return c.Call(ctx, MethodGetDomain, map[string]any{"domain": domain})
}

// AddDomain enables mail for a domain. It fails if the domain already
// exists.
func (c *Client) AddDomain(ctx context.Context, domain string) (*Response, error) {
	if domain == "" {
		return nil, opserr.InvalidArgument("AddDomain", "domain is required")
	}
	return c.Call(ctx, MethodChangeDomain, map[string]any{
		"domain":      domain,
		"attributes":  map[string]any{},
		"create_only": true,
	})
}

// SearchUsers lists the users of a domain.
func (c *Client) SearchUsers(ctx context.Context, domain string) (*Response, error) {
	if domain == "" {
		return nil, opserr.InvalidArgument("SearchUsers", "domain is required")
	}
	return c.Call(ctx, MethodSearchUsers, map[string]any{
		"criteria": map[string]any{"domain": domain},
	})
}

// ChangeUser creates or edits a user. attributes carries the user type
// (mailbox, forward or filter) and settings; passwords are sent in clear.
func (c *Client) ChangeUser(ctx context.Context, user string, attributes map[string]any) (*Response, error) {
	if user == "" {
		return nil, opserr.InvalidArgument("ChangeUser", "user is required")
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	return c.Call(ctx, MethodChangeUser, map[string]any{
		"user":       user,
		"attributes": attributes,
	})
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, user string) (*Response, error) {
	if user == "" {
		return nil, opserr.InvalidArgument("DeleteUser", "user is required")
	}
	return c.Call(ctx, MethodDeleteUser, map[string]any{"user": user})
}

// DeleteDomain removes a mail domain.
func (c *Client) DeleteDomain(ctx context.Context, domain string) (*Response, error) {
	if domain == "" {
		return nil, opserr.InvalidArgument("DeleteDomain", "domain is required")
	}
	return c.Call(ctx, MethodDeleteDomain, map[string]any{"domain": domain})
}

// GetUser fetches a user.
func (c *Client) GetUser(ctx context.Context, user string) (*Response, error) {
	if user == "" {
		return nil, opserr.InvalidArgument("GetUser", "user is required")
	}
	return c.Call(ctx, MethodGetUser, map[string]any{"user": user})
}

// RenameUser renames a user to newName.
func (c *Client) RenameUser(ctx context.Context, user, newName string) (*Response, error) {
	if user == "" || newName == "" {
		return nil, opserr.InvalidArgument("RenameUser", "user and new name are required")
	}
	return c.Call(ctx, MethodRenameUser, map[string]any{
		"user":     user,
		"new_name": newName,
	})
}

// RestoreDomain restores a deleted domain identified by id, optionally
// under newName.
func (c *Client) RestoreDomain(ctx context.Context, domain, id, newName string) (*Response, error) {
	if domain == "" || id == "" {
		return nil, opserr.InvalidArgument("RestoreDomain", "domain and id are required")
	}
	params := map[string]any{
		"domain": domain,
		"id":     id,
	}
	if newName != "" {
		params["new_name"] = newName
	}
	return c.Call(ctx, MethodRestoreDomain, params)
}
