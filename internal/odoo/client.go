// Package odoo is the only point of contact with the remote Odoo instance.
// It authenticates once and exposes a single read primitive, SearchRead;
// nothing that writes, deletes or calls arbitrary model methods is reachable
// from here, since query scripts run against this client.
package odoo

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	apperrors "github.com/Vovarama1992/odoo-query-bridge/internal/errors"
)

type Client struct {
	url      string
	db       string
	username string
	password string
	uid      int64
	caller   Caller
}

type Option func(*options)

type options struct {
	caller Caller
	lookup func(string) (string, bool)
}

// WithCaller replaces the XML-RPC transport.
func WithCaller(c Caller) Option {
	return func(o *options) { o.caller = c }
}

// WithLookup replaces os.LookupEnv for credential resolution.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookup = lookup }
}

// New resolves credentials, then authenticates. Missing credentials fail
// with a configuration error before any network call is made.
func New(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	o := options{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	creds = resolve(creds, o.lookup)
	if missing := creds.missing(); len(missing) > 0 {
		return nil, apperrors.New(
			apperrors.ConfigurationError,
			"missing Odoo credentials: "+strings.Join(missing, ", "),
		)
	}

	caller := o.caller
	if caller == nil {
		xc, err := NewXMLRPCCaller(creds.URL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ConfigurationError, "invalid Odoo URL", err)
		}
		caller = xc
	}

	c := &Client{
		url:      strings.TrimRight(creds.URL, "/"),
		db:       creds.Database,
		username: creds.Username,
		password: creds.Password,
		caller:   caller,
	}
	if err := c.authenticate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	var reply any
	err := c.caller.Call(ctx, "common", "authenticate", []any{
		c.db, c.username, c.password, map[string]any{},
	}, &reply)
	if err != nil {
		return apperrors.Wrap(apperrors.AuthenticationError, "authenticate "+c.username, err)
	}

	uid, ok := toUID(reply)
	if !ok {
		return apperrors.New(apperrors.AuthenticationError, "Authentication failed!")
	}
	c.uid = uid
	log.Printf("[odoo] authenticated db=%s user=%s uid=%d", c.db, c.username, uid)
	return nil
}

// SearchRead runs model.search_read. A nil domain means no filter, nil
// fields means all fields and limit 0 means unbounded.
func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit int) ([]Record, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, apperrors.New(apperrors.RemoteQueryError, "model is required")
	}
	if limit < 0 {
		return nil, apperrors.New(apperrors.RemoteQueryError, fmt.Sprintf("limit must be >= 0, got %d", limit))
	}
	if err := domain.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.RemoteQueryError, "invalid domain for "+model, err)
	}

	if domain == nil {
		domain = Domain{}
	}
	if fields == nil {
		fields = []string{}
	}

	var reply any
	err := c.caller.Call(ctx, "object", "execute_kw", []any{
		c.db, c.uid, c.password,
		model, "search_read",
		[]any{domain.Args()},
		map[string]any{"fields": fields, "limit": limit},
	}, &reply)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.RemoteQueryError, "search_read "+model, err)
	}

	records, err := toRecords(reply)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.RemoteQueryError, "search_read "+model, err)
	}
	log.Printf("[odoo] search_read model=%s limit=%d rows=%d", model, limit, len(records))
	return records, nil
}

func (c *Client) UID() int64       { return c.uid }
func (c *Client) Database() string { return c.db }
func (c *Client) URL() string      { return c.url }

func resolve(creds Credentials, lookup func(string) (string, bool)) Credentials {
	fill := func(dst *string, key string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&creds.URL, EnvURL)
	fill(&creds.Database, EnvDatabase)
	fill(&creds.Username, EnvUsername)
	fill(&creds.Password, EnvPassword)
	return creds
}

func (c Credentials) missing() []string {
	var out []string
	if strings.TrimSpace(c.URL) == "" {
		out = append(out, EnvURL)
	}
	if strings.TrimSpace(c.Database) == "" {
		out = append(out, EnvDatabase)
	}
	if strings.TrimSpace(c.Username) == "" {
		out = append(out, EnvUsername)
	}
	if c.Password == "" {
		out = append(out, EnvPassword)
	}
	return out
}

// toUID accepts what Odoo returns from authenticate: a positive integer on
// success, False otherwise.
func toUID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, n > 0
	case int:
		return int64(n), n > 0
	case int32:
		return int64(n), n > 0
	case float64:
		return int64(n), n > 0
	default:
		return 0, false
	}
}

func toRecords(v any) ([]Record, error) {
	switch rows := v.(type) {
	case nil:
		return []Record{}, nil
	case []Record:
		return rows, nil
	case []any:
		out := make([]Record, 0, len(rows))
		for i, row := range rows {
			rec, ok := row.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("row %d: unexpected type %T", i, row)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected search_read reply %T", v)
	}
}

// Close releases the transport if it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.caller.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
