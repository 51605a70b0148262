package opensrs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirosfoundation/go-opensrs/pkg/codec"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/signing"
	"github.com/sirosfoundation/go-opensrs/pkg/transport"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Request headers
const (
	HeaderUsername  = "X-Username"
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-Id"

	ContentTypeXML = "text/xml"
)

// Config holds client configuration. It is copied into the Client and not
// read again.
type Config struct {
	// APIURL is the XCP endpoint, e.g. https://rr-n1-tor.opensrs.net:55443
	APIURL string
	// Username is the reseller username sent as X-Username
	Username string
	// APIKey is the reseller key used to sign requests
	APIKey string

	// Transport defaults to an HTTPS client built from
	// transport.DefaultHTTPSConfig
	Transport transport.Transport
	Logger    *slog.Logger
}

// Client talks to the registrar XCP API. It is safe for concurrent use.
type Client struct {
	apiURL    string
	username  string
	signer    *signing.Signer
	transport transport.Transport
	logger    *slog.Logger
}

// NewClient creates a new registrar client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, opserr.Configuration("opensrs", "config is required")
	}
	if cfg.APIURL == "" {
		return nil, opserr.Configuration("opensrs", "API URL is required")
	}
	if cfg.Username == "" {
		return nil, opserr.Configuration("opensrs", "username is required")
	}

	signer, err := signing.NewSigner(cfg.APIKey)
	if err != nil {
		return nil, err
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
		apiURL:    cfg.APIURL,
		username:  cfg.Username,
		signer:    signer,
		transport: tr,
		logger:    logger,
	}, nil
}

// Do sends one XCP request and returns the flattened reply.
//
// A reply with is_success=0 is returned as a Response with Success false,
// not as an error. Errors are reserved for invalid input, transport
// failures and replies that cannot be decoded.
func (c *Client) Do(ctx context.Context, object, action string, attributes *value.Assoc) (*Response, error) {
	body, err := codec.Encode(object, action, attributes)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := c.logger.With(
		slog.String("object", object),
		slog.String("action", action),
		slog.String("request_id", requestID),
	)

	header := http.Header{}
	header.Set("Content-Type", ContentTypeXML)
	header.Set(HeaderUsername, c.username)
	header.Set(HeaderSignature, c.signer.Sign(body))
	header.Set("Content-Length", strconv.Itoa(len(body)))
	header.Set(HeaderRequestID, requestID)

	log.Debug("sending request", "bytes", len(body))

	reply, err := c.transport.Send(ctx, c.apiURL, body, header)
	if err != nil {
		log.Error("request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", object, action, err)
	}

	raw, err := codec.Decode(reply)
	if err != nil {
		log.Error("undecodable reply", "error", err)
		return nil, fmt.Errorf("%s %s: %w", object, action, err)
	}

	flattener := &codec.Flattener{
		OnCollapse: func(path []string, key string) {
			log.Debug("flatten dropped single key", "path", strings.Join(path, "."), "key", key)
		},
	}
	resp := newResponse(flattener.Flatten(raw))

	if !resp.Success {
		log.Warn("registrar reported failure",
			"response_code", resp.Code,
			"response_text", resp.Text)
	} else {
		log.Debug("request completed", "response_code", resp.Code)
	}

	return resp, nil
}
