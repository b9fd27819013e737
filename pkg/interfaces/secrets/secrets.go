// Package secrets defines the persistence contract an encrypted secret
// store backend satisfies. pkg/secrets.EncryptedStoreProvider is the
// sole consumer; concrete backends (in-memory, database-backed) live
// alongside it. In production the only record this stores is the SES
// from-address credential pkg/messaging.SESProvider resolves at send
// time, persisted by internal/storage/bun.SecretStore.
package secrets

import "context"

// Record is an encrypted secret entry as persisted by a Store.
type Record struct {
	Scope     string
	SubjectID string
	Channel   string
	Provider  string
	Key       string
	Version   string
	Cipher    []byte
	Nonce     []byte
	Metadata  map[string]any
}

// Store defines persistence operations for secret records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	GetLatest(ctx context.Context, scope, subjectID, channel, provider, key string) (Record, error)
	GetVersion(ctx context.Context, scope, subjectID, channel, provider, key, version string) (Record, error)
	Delete(ctx context.Context, scope, subjectID, channel, provider, key string) error
	List(ctx context.Context, scope, subjectID, channel, provider, key string) ([]Record, error)
}
