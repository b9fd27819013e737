package bunrepo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.DriverName(), "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	models := []any{
		(*domain.Event)(nil),
		(*domain.UserTraits)(nil),
		(*domain.SendRequest)(nil),
		(*domain.Suppression)(nil),
		(*domain.Decision)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}
	return db
}

func TestEventRepositoryBunAddAndHydrateTraits(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	email := "user@example.com"
	event := &domain.Event{UserID: "u1", EventType: "signup_completed", EventTimestamp: time.Now()}
	traits := &domain.UserTraits{Email: &email}

	if err := repo.Add(ctx, event, traits); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Traits == nil || got.Traits.Email == nil || *got.Traits.Email != email {
		t.Fatalf("expected hydrated traits, got %+v", got.Traits)
	}
}

func TestEventRepositoryBunGetLatestByUserAndType(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	older := &domain.Event{UserID: "u1", EventType: "cart_abandoned", EventTimestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &domain.Event{UserID: "u1", EventType: "cart_abandoned", EventTimestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	if err := repo.Add(ctx, older, nil); err != nil {
		t.Fatalf("add older: %v", err)
	}
	if err := repo.Add(ctx, newer, nil); err != nil {
		t.Fatalf("add newer: %v", err)
	}

	latest, err := repo.GetLatestByUserAndType(ctx, "u1", "cart_abandoned")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.ID != newer.ID {
		t.Fatalf("expected newer event to win, got %s", latest.ID)
	}
}

func TestSendRequestRepositoryBunExistsInDaySoFar(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewSendRequestRepository(db)
	ctx := context.Background()

	dayStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	priorTS := dayStart.Add(12 * time.Hour)
	if err := repo.Add(ctx, &domain.SendRequest{UserID: "u1", TemplateName: "DAILY_DIGEST", EventTimestamp: &priorTS}); err != nil {
		t.Fatalf("add: %v", err)
	}

	exists, err := repo.ExistsInDaySoFar(ctx, "u1", "DAILY_DIGEST", dayStart.Add(18*time.Hour))
	if err != nil {
		t.Fatalf("exists in day so far: %v", err)
	}
	if !exists {
		t.Fatalf("expected existing send later the same day")
	}

	exists, err = repo.ExistsInDaySoFar(ctx, "u1", "DAILY_DIGEST", dayStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("exists in day so far: %v", err)
	}
	if exists {
		t.Fatalf("expected no match on the following calendar day")
	}
}

func TestDecisionRepositoryBunListByUser(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewDecisionRepository(db)
	ctx := context.Background()

	if err := repo.Add(ctx, &domain.Decision{UserID: "u1", EventType: "signup_completed", Outcome: "allow"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := repo.ListByUser(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected total 1, got %d", result.Total)
	}
}

func TestSuppressionRepositoryBunAddAndList(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewSuppressionRepository(db)
	ctx := context.Background()

	if err := repo.Add(ctx, &domain.Suppression{UserID: "u1", TemplateName: "WELCOME_EMAIL", SuppressionReason: domain.SuppressionModeOnceEver}); err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := repo.ListByUser(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 suppression, got %d", len(result.Items))
	}
}
