package provider

import (
	"fmt"

	"identity-service/internal/auth"
)

type Kind string

const (
	KindOAuth       Kind = "oauth"
	KindCredentials Kind = "credentials"
)

// Descriptor is one entry of the sign-in menu.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Registry holds the configured identity sources in display order.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	descriptors []Descriptor
	oauth       map[string]OAuthProvider
	credentials Authorizer
}

// NewRegistry keeps the OAuth providers in the given order and appends the
// credentials source last when it is non-nil. A repeated name keeps the
// first provider.
func NewRegistry(credentials Authorizer, list ...OAuthProvider) *Registry {
	r := &Registry{
		oauth:       make(map[string]OAuthProvider, len(list)),
		credentials: credentials,
	}
	for _, p := range list {
		if _, dup := r.oauth[p.Name()]; dup {
			continue
		}
		r.oauth[p.Name()] = p
		r.descriptors = append(r.descriptors, Descriptor{
			ID:   p.Name(),
			Name: p.DisplayName(),
			Kind: KindOAuth,
		})
	}
	if credentials != nil {
		r.descriptors = append(r.descriptors, Descriptor{
			ID:   auth.ProviderCredentials,
			Name: "Email",
			Kind: KindCredentials,
		})
	}
	return r
}

// Get returns the OAuth provider by name or an error if not registered.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.oauth[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}

// Credentials returns the email/password source, nil when not configured.
func (r *Registry) Credentials() Authorizer {
	return r.credentials
}

// Descriptors returns a copy of the ordered sign-in menu.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Descriptor returns the menu entry for id.
func (r *Registry) Descriptor(id string) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
