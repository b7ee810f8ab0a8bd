package odoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/kolo/xmlrpc"
)

// XMLRPCCaller talks to <url>/xmlrpc/2/<service>. The underlying client has
// no context support: ctx is checked before each call but an in-flight
// request is not interrupted.
type XMLRPCCaller struct {
	baseURL string
	// transport is owned by this caller; Close drops only its idle
	// connections, never those of http.DefaultTransport.
	transport *http.Transport

	mu      sync.Mutex
	clients map[string]*xmlrpc.Client
}

func NewXMLRPCCaller(baseURL string) (*XMLRPCCaller, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://, got %q", baseURL)
	}
	return &XMLRPCCaller{
		baseURL:   baseURL,
		transport: http.DefaultTransport.(*http.Transport).Clone(),
		clients:   map[string]*xmlrpc.Client{},
	}, nil
}

func (x *XMLRPCCaller) Call(ctx context.Context, service, method string, args []any, reply any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := x.client(service)
	if err != nil {
		return err
	}
	return client.Call(method, args, reply)
}

func (x *XMLRPCCaller) client(service string) (*xmlrpc.Client, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if c, ok := x.clients[service]; ok {
		return c, nil
	}
	c, err := xmlrpc.NewClient(x.baseURL+"/xmlrpc/2/"+service, x.transport)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc client for %s: %w", service, err)
	}
	x.clients[service] = c
	return c, nil
}

// Close releases the per-service clients.
func (x *XMLRPCCaller) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for name, c := range x.clients {
		_ = c.Close()
		delete(x.clients, name)
	}
	x.transport.CloseIdleConnections()
	return nil
}
