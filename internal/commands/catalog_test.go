package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/marketing-messaging-service/internal/processor"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/goliatone/marketing-messaging-service/pkg/messaging"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
	"github.com/goliatone/marketing-messaging-service/pkg/storage"
)

func TestCatalogProcessEvent(t *testing.T) {
	ctx := context.Background()

	catalog, err := rules.Load([]byte(`
rules:
  - name: welcome_email
    trigger: { event_type: signup_completed }
    conditions:
      all:
        - { field: user_traits.marketing_opt_in, operator: equals, value: true }
    action: { type: send, template_name: WELCOME_EMAIL, delivery_method: email }
    suppression: { mode: once_ever }
`))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	providers := storage.NewMemoryProviders()
	logPath := filepath.Join(t.TempDir(), "messages.log")
	provider := messaging.NewFileLogProvider(logPath, nil)

	proc, err := processor.New(processor.Dependencies{
		Transaction: providers.Transaction,
		Catalog:     catalog,
		Provider:    provider,
	})
	if err != nil {
		t.Fatalf("processor.New: %v", err)
	}

	cat, err := NewCatalog(Dependencies{Processor: proc})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	optIn := true
	in := processor.EventIn{
		UserID:         "u1",
		EventType:      "signup_completed",
		EventTimestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UserTraits:     &processor.UserTraitsIn{MarketingOptIn: &optIn},
	}

	if err := cat.ProcessEvent.Execute(ctx, in); err != nil {
		t.Fatalf("ProcessEvent.Execute: %v", err)
	}

	result, err := providers.Decisions.ListByUser(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list decisions: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(result.Items))
	}
	if result.Items[0].Outcome != "allow" {
		t.Fatalf("expected allow outcome, got %s", result.Items[0].Outcome)
	}
}
