package vault

import (
	"path"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/sanLimbu/tasksync/internal"
)

// Logical is implemented by *api.Logical.
type Logical interface {
	Read(path string) (*api.Secret, error)
}

// Provider reads secrets from a Vault KV v2 engine.
type Provider struct {
	path    string
	logical Logical
}

// New instantiates the Vault client.
func New(token, addr, path string) (*Provider, error) {
	config := &api.Config{
		Address: addr,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return NewWithLogical(client.Logical(), path), nil
}

// NewWithLogical instantiates a Provider on an existing Logical client.
func NewWithLogical(logical Logical, path string) *Provider {
	return &Provider{
		path:    path,
		logical: logical,
	}
}

// Get retrieves the value of a key in the format "<secret>:<key>", stored in the "secret/data"
// mount of the configured path.
func (p *Provider) Get(v string) (string, error) {
	secret, key, ok := strings.Cut(v, ":")
	if !ok || secret == "" || key == "" {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "missing key value in %q", v)
	}

	res, err := p.logical.Read(path.Join("secret", "data", p.path, secret))
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "logical.Read")
	}

	if res == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret %q not found", secret)
	}

	data, ok := res.Data["data"].(map[string]interface{})
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeUnknown, "secret %q has no data", secret)
	}

	val, ok := data[key].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "key %q not found in %q", key, secret)
	}

	return val, nil
}
