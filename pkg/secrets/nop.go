package secrets

// NopProvider always returns ErrNotFound. buildSecretsResolver falls back
// to it (wrapped in SimpleResolver) when messaging.ses.from_secret_key is
// unset, so SESProvider.resolveFrom short-circuits to cfg.From without a
// lookup ever reaching a real backend.
type NopProvider struct{}

func (NopProvider) Get(ref Reference) (SecretValue, error) { return SecretValue{}, ErrNotFound }
func (NopProvider) Put(ref Reference, value []byte) (string, error) {
	return "", ErrUnsupported
}
func (NopProvider) Delete(ref Reference) error                     { return ErrUnsupported }
func (NopProvider) Describe(ref Reference) (map[string]any, error) { return nil, ErrNotFound }
