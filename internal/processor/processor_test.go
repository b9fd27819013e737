package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/messaging"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
	"github.com/goliatone/marketing-messaging-service/pkg/storage"
)

const testCatalog = `
rules:
  - name: welcome_email
    trigger: { event_type: signup_completed }
    conditions:
      all:
        - { field: user_traits.marketing_opt_in, operator: equals, value: true }
    action: { type: send, template_name: WELCOME_EMAIL, delivery_method: email }
    suppression: { mode: once_ever }
  - name: fraud_alert
    trigger: { event_type: fraud_flagged }
    conditions: { all: [] }
    action: { type: alert, template_name: FRAUD_ALERT, delivery_method: internal }
    suppression: { mode: none }
`

func newTestProcessor(t *testing.T) (*Processor, string) {
	t.Helper()
	cat, err := rules.Load([]byte(testCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	providers := storage.NewMemoryProviders()
	logPath := filepath.Join(t.TempDir(), "messages.log")
	provider := messaging.NewFileLogProvider(logPath, nil)

	proc, err := New(Dependencies{
		Transaction: providers.Transaction,
		Catalog:     cat,
		Provider:    provider,
	})
	if err != nil {
		t.Fatalf("processor.New: %v", err)
	}
	return proc, logPath
}

func TestProcessAllowsAndDispatches(t *testing.T) {
	proc, logPath := newTestProcessor(t)
	optIn := true

	result, err := proc.Process(context.Background(), EventIn{
		UserID:         "u1",
		EventType:      "signup_completed",
		EventTimestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UserTraits:     &UserTraitsIn{MarketingOptIn: &optIn},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Outcome != domain.OutcomeAllow {
		t.Fatalf("expected allow, got %s", result.Outcome)
	}
	if result.MatchedRule == nil || *result.MatchedRule != "welcome_email" {
		t.Fatalf("expected welcome_email match, got %+v", result.MatchedRule)
	}

	contents, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(contents), "WELCOME_EMAIL") {
		t.Fatalf("expected dispatched message in log, got %q", contents)
	}
}

func TestProcessSuppressesSecondSendOnceEver(t *testing.T) {
	proc, _ := newTestProcessor(t)
	optIn := true
	ctx := context.Background()

	in := EventIn{
		UserID:         "u1",
		EventType:      "signup_completed",
		EventTimestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UserTraits:     &UserTraitsIn{MarketingOptIn: &optIn},
	}

	if _, err := proc.Process(ctx, in); err != nil {
		t.Fatalf("first process: %v", err)
	}

	in.EventTimestamp = in.EventTimestamp.Add(time.Hour)
	result, err := proc.Process(ctx, in)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if result.Outcome != domain.OutcomeSuppress {
		t.Fatalf("expected suppress on second send, got %s", result.Outcome)
	}
	if result.Channel == nil || *result.Channel != "email" {
		t.Fatalf("expected suppressed result to carry the vetoed channel, got %+v", result.Channel)
	}
}

func TestProcessNoMatchYieldsNoneOutcome(t *testing.T) {
	proc, _ := newTestProcessor(t)

	result, err := proc.Process(context.Background(), EventIn{
		UserID:         "u1",
		EventType:      "unrelated_event",
		EventTimestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Outcome != domain.OutcomeNone {
		t.Fatalf("expected none outcome, got %s", result.Outcome)
	}
	if result.MatchedRule != nil {
		t.Fatalf("expected no matched rule, got %v", *result.MatchedRule)
	}
}

func TestProcessAlertBypassesSuppression(t *testing.T) {
	proc, logPath := newTestProcessor(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := proc.Process(ctx, EventIn{
			UserID:         "u2",
			EventType:      "fraud_flagged",
			EventTimestamp: time.Now(),
		})
		if err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
		if result.Outcome != domain.OutcomeAlert {
			t.Fatalf("expected alert on attempt %d, got %s", i, result.Outcome)
		}
	}

	contents, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Count(string(contents), "FRAUD_ALERT") != 2 {
		t.Fatalf("expected both alerts dispatched, got %q", contents)
	}
}

func TestProcessRejectsInvalidPayload(t *testing.T) {
	proc, _ := newTestProcessor(t)
	_, err := proc.Process(context.Background(), EventIn{EventType: "signup_completed", EventTimestamp: time.Now()})
	if err == nil {
		t.Fatalf("expected error for missing user_id")
	}
}
