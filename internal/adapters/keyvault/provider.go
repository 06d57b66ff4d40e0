package keyvault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/heliumapi/helium/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Config locates the vault and the service principal allowed to read it.
// An empty ClientID selects the managed identity of the host.
type Config struct {
	URL          string
	TenantID     string
	ClientID     string
	ClientSecret string
}

type secretGetter interface {
	GetSecret(ctx context.Context, name, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// Provider reads secrets from Azure Key Vault. The vault client is built on
// first use; concurrent first callers share a single construction and a
// failed construction is retried by the next caller.
type Provider struct {
	cfg       Config
	newClient func(Config) (secretGetter, error)

	group singleflight.Group
	mu    sync.RWMutex
	sc    secretGetter
}

var _ ports.SecretSource = (*Provider)(nil)

func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, newClient: newAzureClient}
}

// GetSecret returns the latest version of the named secret.
func (p *Provider) GetSecret(ctx context.Context, name string) (string, error) {
	c, err := p.client()
	if err != nil {
		return "", err
	}

	resp, err := c.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("unable to find secret %s: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("unable to find secret %s: empty value", name)
	}
	return *resp.Value, nil
}

func (p *Provider) client() (secretGetter, error) {
	p.mu.RLock()
	c := p.sc
	p.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	v, err, _ := p.group.Do("client", func() (any, error) {
		p.mu.RLock()
		existing := p.sc
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		created, err := p.newClient(p.cfg)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.sc = created
		p.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create key vault client: %w", err)
	}
	return v.(secretGetter), nil
}

func newAzureClient(cfg Config) (secretGetter, error) {
	if cfg.URL == "" {
		return nil, errors.New("key vault url is required")
	}

	if cfg.ClientID == "" {
		cred, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("managed identity credential: %w", err)
		}
		c, err := azsecrets.NewClient(cfg.URL, cred, nil)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("client secret credential: %w", err)
	}
	c, err := azsecrets.NewClient(cfg.URL, cred, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}
