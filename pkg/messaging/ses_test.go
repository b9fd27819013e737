package messaging

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/goliatone/marketing-messaging-service/pkg/secrets"
)

type fakeSESClient struct {
	calls []*ses.SendEmailInput
	err   error
}

func (f *fakeSESClient) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

// newResolvedProvider wires the same chain buildSecretsResolver assembles
// in cmd/server: an encrypted MemoryStore-backed provider, seeded with the
// from-address, registered at system scope, and cached.
func newResolvedProvider(t *testing.T, from string) (*SESProvider, *fakeSESClient) {
	t.Helper()

	key := bytes.Repeat([]byte{7}, 32)
	store := secrets.NewMemoryStore()
	enc, err := secrets.NewEncryptedStoreProvider(store, key)
	if err != nil {
		t.Fatalf("encrypted provider: %v", err)
	}

	ref := secrets.Reference{Scope: secrets.ScopeSystem, SubjectID: "ses", Channel: "email", Provider: "ses", Key: "from_address"}
	if _, err := enc.Put(ref, []byte(from)); err != nil {
		t.Fatalf("seed secret: %v", err)
	}

	registry := secrets.Registry{System: enc}
	resolver := secrets.NewCachingResolver(registry, 0)

	client := &fakeSESClient{}
	provider := NewSESProvider(SESConfig{From: "unused@example.com", SecretRef: ref}, resolver, nil, nil)
	provider.client = client
	return provider, client
}

func TestSESProviderResolvesFromAddressThroughEncryptedSecret(t *testing.T) {
	provider, client := newResolvedProvider(t, "campaigns@example.com")

	if err := provider.SendMessage(context.Background(), "user@customer.com", "WELCOME_EMAIL", "email", "rule:welcome_email"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(client.calls))
	}
	if got := *client.calls[0].Source; got != "campaigns@example.com" {
		t.Fatalf("expected resolved from-address, got %q", got)
	}
}

func TestSESProviderFallsBackToConfiguredFromWhenSecretUnset(t *testing.T) {
	fallback := &fakeSESClient{}
	provider := NewSESProvider(SESConfig{From: "configured@example.com"}, nil, nil, nil)
	provider.client = fallback

	if err := provider.SendMessage(context.Background(), "user@customer.com", "WELCOME_EMAIL", "email", "rule:welcome_email"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if got := *fallback.calls[0].Source; got != "configured@example.com" {
		t.Fatalf("expected configured from-address, got %q", got)
	}
}

type recordingProvider struct {
	channel string
}

func (r *recordingProvider) SendMessage(_ context.Context, _, _, channel, _ string) error {
	r.channel = channel
	return nil
}

func TestSESProviderRoutesNonEmailToFallback(t *testing.T) {
	fallback := &recordingProvider{}
	provider := NewSESProvider(SESConfig{From: "configured@example.com"}, nil, fallback, nil)

	if err := provider.SendMessage(context.Background(), "user@customer.com", "FRAUD_ALERT", "internal", "rule:fraud_alert"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if fallback.channel != "internal" {
		t.Fatalf("expected fallback to receive internal channel, got %q", fallback.channel)
	}
}
