package storage

import "context"

// LocalStorage is the durable key/value store scoped to a single shopping
// session. Get reports found=false for a missing key.
type LocalStorage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Backend is a durable key/value store shared by all sessions. Entries are
// partitioned by namespace.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Ping(ctx context.Context) error
}

// Scoped binds a backend to one namespace.
type Scoped struct {
	backend   Backend
	namespace string
}

// Namespace returns the LocalStorage view of backend for namespace.
func Namespace(backend Backend, namespace string) *Scoped {
	return &Scoped{backend: backend, namespace: namespace}
}

// Get reads key from the bound namespace.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.backend.Get(ctx, s.namespace, key)
}

// Set writes key in the bound namespace.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.namespace, key, value)
}
