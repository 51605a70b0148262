package mail

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirosfoundation/go-opensrs/internal/opstest"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{User: "admin@example.com", Password: "s3cret"}

func newTestClient(t *testing.T) (*Client, *opstest.Server) {
	t.Helper()

	srv := opstest.NewServer("unused", "unused")
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{APIURL: srv.MailURL(), Credentials: testCreds})
	require.NoError(t, err)
	return client, srv
}

func TestNewClient_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"missing URL", &Config{Credentials: testCreds}},
		{"missing password", &Config{APIURL: "https://mail.example.net/api", Credentials: Credentials{User: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			assert.ErrorIs(t, err, opserr.ErrConfiguration)
		})
	}
}

func TestMethods_RequestBodies(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() (*Response, error)
		method string
		want   map[string]any
	}{
		{
			name:   "authenticate",
			call:   func() (*Response, error) { return client.Authenticate(ctx) },
			method: MethodAuthenticate,
			want:   map[string]any{},
		},
		{
			name:   "get domain",
			call:   func() (*Response, error) { return client.GetDomain(ctx, "example.com") },
			method: MethodGetDomain,
			want:   map[string]any{"domain": "example.com"},
		},
		{
			name:   "add domain",
			call:   func() (*Response, error) { return client.AddDomain(ctx, "example.com") },
			method: MethodChangeDomain,
			want: map[string]any{
				"domain":      "example.com",
				"attributes":  map[string]any{},
				"create_only": true,
			},
		},
		{
			name:   "search users",
			call:   func() (*Response, error) { return client.SearchUsers(ctx, "example.com") },
			method: MethodSearchUsers,
			want:   map[string]any{"criteria": map[string]any{"domain": "example.com"}},
		},
		{
			name: "change user",
			call: func() (*Response, error) {
				return client.ChangeUser(ctx, "bob@example.com", map[string]any{"type": "mailbox", "password": "pw"})
			},
			method: MethodChangeUser,
			want: map[string]any{
				"user":       "bob@example.com",
				"attributes": map[string]any{"type": "mailbox", "password": "pw"},
			},
		},
		{
			name:   "delete user",
			call:   func() (*Response, error) { return client.DeleteUser(ctx, "bob@example.com") },
			method: MethodDeleteUser,
			want:   map[string]any{"user": "bob@example.com"},
		},
		{
			name:   "delete domain",
			call:   func() (*Response, error) { return client.DeleteDomain(ctx, "example.com") },
			method: MethodDeleteDomain,
			want:   map[string]any{"domain": "example.com"},
		},
		{
			name:   "get user",
			call:   func() (*Response, error) { return client.GetUser(ctx, "bob@example.com") },
			method: MethodGetUser,
			want:   map[string]any{"user": "bob@example.com"},
		},
		{
			name:   "rename user",
			call:   func() (*Response, error) { return client.RenameUser(ctx, "bob@example.com", "rob@example.com") },
			method: MethodRenameUser,
			want:   map[string]any{"user": "bob@example.com", "new_name": "rob@example.com"},
		},
		{
			name:   "restore domain",
			call:   func() (*Response, error) { return client.RestoreDomain(ctx, "example.com", "99", "example.org") },
			method: MethodRestoreDomain,
			want:   map[string]any{"domain": "example.com", "id": "99", "new_name": "example.org"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)
			assert.True(t, resp.Success)

			calls := srv.MailCalls()
			require.NotEmpty(t, calls)
			last := calls[len(calls)-1]
			assert.Equal(t, tt.method, last.Method)

			creds, ok := last.Body["credentials"].(map[string]any)
			require.True(t, ok, "credentials missing from %v", last.Body)
			assert.Equal(t, testCreds.User, creds["user"])
			assert.Equal(t, testCreds.Password, creds["password"])

			delete(last.Body, "credentials")
			assert.Equal(t, tt.want, last.Body)
		})
	}
}

func TestCall_BusinessFailure(t *testing.T) {
	client, srv := newTestClient(t)
	srv.HandleMail(MethodGetUser, func(method string, req map[string]any) (int, map[string]any) {
		return http.StatusOK, map[string]any{
			"success":      false,
			"error":        "Object not found",
			"error_number": 2,
		}
	})

	resp, err := client.GetUser(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Object not found", resp.Error)
	assert.Equal(t, 2, resp.ErrorNumber)
	assert.Equal(t, "Object not found", resp.Fields["error"])
}

func TestCall_ReplyFields(t *testing.T) {
	client, srv := newTestClient(t)
	srv.HandleMail(MethodGetDomain, func(method string, req map[string]any) (int, map[string]any) {
		return http.StatusOK, map[string]any{
			"success":  true,
			"metadata": map[string]any{"createtime": 1700000000},
		}
	})

	resp, err := client.GetDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Fields, "metadata")
}

func TestCall_InvalidArguments(t *testing.T) {
	client, err := NewClient(&Config{
		APIURL:      "https://mail.example.net/api",
		Credentials: testCreds,
		Transport: transport.Func(func(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error) {
			t.Errorf("unexpected network call to %s", url)
			return nil, errors.New("no network")
		}),
	})
	require.NoError(t, err)

	ctx := context.Background()
	calls := []func() (*Response, error){
		func() (*Response, error) { return client.Call(ctx, "", nil) },
		func() (*Response, error) { return client.GetDomain(ctx, "") },
		func() (*Response, error) { return client.AddDomain(ctx, "") },
		func() (*Response, error) { return client.SearchUsers(ctx, "") },
		func() (*Response, error) { return client.ChangeUser(ctx, "", nil) },
		func() (*Response, error) { return client.DeleteUser(ctx, "") },
		func() (*Response, error) { return client.DeleteDomain(ctx, "") },
		func() (*Response, error) { return client.GetUser(ctx, "") },
		func() (*Response, error) { return client.RenameUser(ctx, "a", "") },
		func() (*Response, error) { return client.RestoreDomain(ctx, "a.com", "", "") },
	}
	for i, call := range calls {
		_, err := call()
		assert.ErrorIs(t, err, opserr.ErrInvalidArgument, "call %d", i)
	}
}

func TestCall_UndecodableReply(t *testing.T) {
	client, err := NewClient(&Config{
		APIURL:      "https://mail.example.net/api",
		Credentials: testCreds,
		Transport: transport.Func(func(ctx context.Context, url string, body []byte, header http.Header) ([]byte, error) {
			assert.Equal(t, "https://mail.example.net/api/authenticate", url)
			assert.Equal(t, "application/json", header.Get("Content-Type"))
			return []byte("<html>"), nil
		}),
	})
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	assert.ErrorIs(t, err, opserr.ErrFormat)
}

func TestCall_HTTPError(t *testing.T) {
	client, srv := newTestClient(t)
	srv.HandleMail(MethodAuthenticate, func(method string, req map[string]any) (int, map[string]any) {
		return http.StatusServiceUnavailable, map[string]any{"success": false}
	})

	_, err := client.Authenticate(context.Background())

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestNewClient_DefaultTransport(t *testing.T) {
	client, err := NewClient(&Config{APIURL: "https://mail.example.net/api", Credentials: testCreds})
	require.NoError(t, err)

	hc, ok := client.transport.(*transport.HTTPSClient)
	require.True(t, ok, "expected *transport.HTTPSClient, got %T", client.transport)

	cfg := hc.Config()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint16(transport.TLS12), cfg.MinTLSVersion)
	assert.NotNil(t, cfg.Logger)
}
