package odoo

import "context"

// Caller is the RPC transport. service is the XML-RPC endpoint name
// ("common" or "object"), method the remote method on it.
type Caller interface {
	Call(ctx context.Context, service, method string, args []any, reply any) error
}

// Record is one row returned by search_read, keyed by field name.
type Record = map[string]any

// Credentials identify one Odoo user on one database. Empty fields are
// resolved from the environment when a Client is constructed.
type Credentials struct {
	URL      string
	Database string
	Username string
	Password string
}

const (
	EnvURL      = "ODOO_URL"
	EnvDatabase = "ODOO_DB"
	EnvUsername = "ODOO_USERNAME"
	EnvPassword = "ODOO_PASSWORD"
)
