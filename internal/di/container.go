// Package di provides a minimal string-token dependency injection container
// used by the bounded context modules to register and resolve services.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by token.
type ServiceRegistry interface {
	// Get resolves the service registered under token. Factories are
	// invoked lazily on first resolution and the result is cached.
	// Get panics if the token is unknown.
	Get(token string) any

	// Has reports whether a service or factory exists for token.
	Has(token string) bool
}

// Container is a ServiceRegistry that also accepts registrations.
type Container interface {
	ServiceRegistry

	// Register stores an already-constructed service under token.
	Register(token string, service any)

	// RegisterFactory stores a lazy constructor under token. The factory
	// runs at most once, on first Get.
	RegisterFactory(token string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.RWMutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(token string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[token] = service
}

func (c *container) RegisterFactory(token string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[token] = factory
}

func (c *container) Get(token string) any {
	c.mu.RLock()
	if svc, ok := c.services[token]; ok {
		c.mu.RUnlock()
		return svc
	}
	factory, ok := c.factories[token]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("di: unknown service token %q", token))
	}

	svc := factory(c)

	c.mu.Lock()
	// Another goroutine may have resolved the same token concurrently.
	if cached, ok := c.services[token]; ok {
		c.mu.Unlock()
		return cached
	}
	c.services[token] = svc
	delete(c.factories, token)
	c.mu.Unlock()

	return svc
}

func (c *container) Has(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.services[token]; ok {
		return true
	}
	_, ok := c.factories[token]
	return ok
}

// RegisterToken registers a typed factory under token.
func RegisterToken[T any](c Container, token string, factory func(ServiceRegistry) T) {
	c.RegisterFactory(token, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves token and asserts it to T.
func GetToken[T any](sr ServiceRegistry, token string) T {
	svc, ok := sr.Get(token).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type %T", token, sr.Get(token)))
	}
	return svc
}
