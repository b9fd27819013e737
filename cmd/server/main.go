// Command server runs the marketing-messaging decision engine's HTTP
// ingress: POST /events/ to submit a lifecycle event, GET /audit/{user_id}
// to read back the decision trail, and GET /health for liveness checks.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/chacha20poly1305"

	bunrepo "github.com/goliatone/marketing-messaging-service/internal/storage/bun"

	"github.com/goliatone/marketing-messaging-service/internal/audit"
	"github.com/goliatone/marketing-messaging-service/internal/processor"
	"github.com/goliatone/marketing-messaging-service/pkg/activity"
	"github.com/goliatone/marketing-messaging-service/pkg/config"
	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
	secretstore "github.com/goliatone/marketing-messaging-service/pkg/interfaces/secrets"
	"github.com/goliatone/marketing-messaging-service/pkg/messaging"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
	"github.com/goliatone/marketing-messaging-service/pkg/secrets"
	"github.com/goliatone/marketing-messaging-service/pkg/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lgr := logger.NewZerolog(os.Stderr)

	catalog, err := rules.LoadFile(cfg.Rules.CatalogPath)
	if err != nil {
		log.Fatalf("rule catalog: %v", err)
	}

	db, err := openDatabase(ctx, cfg.Persistence)
	if err != nil {
		log.Fatalf("persistence: %v", err)
	}
	defer db.Close()

	providers := storage.NewBunProviders(db)

	provider, err := buildMessagingProvider(db, cfg, lgr)
	if err != nil {
		log.Fatalf("messaging: %v", err)
	}

	proc, err := processor.New(processor.Dependencies{
		Transaction: providers.Transaction,
		Catalog:     catalog,
		Provider:    provider,
		Activity:    activity.Hooks{loggingActivityHook{log: lgr}},
		Logger:      lgr,
	})
	if err != nil {
		log.Fatalf("processor: %v", err)
	}

	projector := audit.New(providers.Decisions)

	app := fiber.New(fiber.Config{
		AppName: "marketing-messaging-service",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	registerRoutes(app, proc, projector)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()
	lgr.Info("server: listening", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lgr.Error("server: shutdown", "error", err.Error())
	}
}

func registerRoutes(app *fiber.App, proc *processor.Processor, projector *audit.Projector) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/events/", func(c *fiber.Ctx) error {
		var body eventInPayload
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "invalid_payload",
				"detail": err.Error(),
			})
		}

		in, err := body.toEventIn()
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "invalid_payload",
				"detail": err.Error(),
			})
		}

		result, err := proc.Process(c.Context(), in)
		if err != nil {
			if errors.Is(err, processor.ErrInvalidPayload) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":  "invalid_payload",
					"detail": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "processing_failed",
				"detail": err.Error(),
			})
		}

		return c.Status(fiber.StatusOK).JSON(resultToResponse(result))
	})

	app.Get("/audit/:user_id", func(c *fiber.Ctx) error {
		userID := c.Params("user_id")
		log, err := projector.GetAuditLog(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "audit_query_failed",
				"detail": err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(log)
	})
}

// eventInPayload mirrors the EventIn JSON shape in spec §6.
type eventInPayload struct {
	UserID         string         `json:"user_id"`
	EventType      string         `json:"event_type"`
	EventTimestamp time.Time      `json:"event_timestamp"`
	Properties     map[string]any `json:"properties"`
	UserTraits     *struct {
		Email          *string `json:"email"`
		Country        *string `json:"country"`
		MarketingOptIn *bool   `json:"marketing_opt_in"`
		RiskSegment    *string `json:"risk_segment"`
	} `json:"user_traits"`
}

func (p eventInPayload) toEventIn() (processor.EventIn, error) {
	in := processor.EventIn{
		UserID:         p.UserID,
		EventType:      p.EventType,
		EventTimestamp: p.EventTimestamp,
		Properties:     p.Properties,
	}
	if p.UserTraits != nil {
		in.UserTraits = &processor.UserTraitsIn{
			Email:          p.UserTraits.Email,
			Country:        p.UserTraits.Country,
			MarketingOptIn: p.UserTraits.MarketingOptIn,
			RiskSegment:    p.UserTraits.RiskSegment,
		}
	}
	if err := in.Validate(); err != nil {
		return processor.EventIn{}, err
	}
	return in, nil
}

// resultToResponse builds the EventProcessingResult JSON shape in spec §6.
func resultToResponse(result processor.Result) fiber.Map {
	return fiber.Map{
		"event_id":      result.EventID,
		"user_id":       result.UserID,
		"event_type":    result.EventType,
		"matched_rule":  result.MatchedRule,
		"action_type":   result.ActionType,
		"template_name": result.TemplateName,
		"channel":       result.Channel,
		"outcome":       result.Outcome,
		"reason":        result.Reason,
	}
}

func buildMessagingProvider(db *bun.DB, cfg config.Config, lgr logger.Logger) (messaging.Provider, error) {
	fallback := messaging.NewFileLogProvider(cfg.Messaging.LogPath, lgr)
	if !cfg.Messaging.SES.Enabled {
		return fallback, nil
	}

	resolver, ref, err := buildSecretsResolver(db, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("messaging: secrets: %w", err)
	}

	return messaging.NewSESProvider(messaging.SESConfig{
		From:             cfg.Messaging.SES.From,
		Region:           cfg.Messaging.SES.Region,
		ConfigurationSet: cfg.Messaging.SES.ConfigurationSet,
		SecretRef:        ref,
	}, resolver, fallback, lgr), nil
}

// defaultSecretEncryptionKey is an insecure fallback used only when the
// operator hasn't configured secrets.encryption_key, mirroring the
// teacher example's demo-key fallback so the process still starts.
const defaultSecretEncryptionKey = "0123456789abcdef0123456789abcdef"

// buildSecretsResolver wires pkg/secrets into the SES from-address
// lookup (SPEC_FULL.md §3's domain-stack secrets-at-rest addition).
// messaging.ses.FromSecretKey unset disables secret resolution entirely
// (the provider falls back to messaging.ses.from as a plain value).
func buildSecretsResolver(db *bun.DB, cfg config.Config, lgr logger.Logger) (secrets.Resolver, secrets.Reference, error) {
	if cfg.Messaging.SES.FromSecretKey == "" {
		return secrets.SimpleResolver{Provider: secrets.NopProvider{}}, secrets.Reference{}, nil
	}

	ref := secrets.Reference{
		Scope:     secrets.ScopeSystem,
		SubjectID: "ses",
		Channel:   domain.ChannelEmail,
		Provider:  "ses",
		Key:       cfg.Messaging.SES.FromSecretKey,
	}

	var provider secrets.Provider
	switch cfg.Secrets.Backend {
	case "static":
		provider = secrets.NewStaticProvider(nil)
	case "memory":
		enc, err := newEncryptedProvider(secrets.NewMemoryStore(), cfg.Secrets.EncryptionKey, lgr)
		if err != nil {
			return nil, secrets.Reference{}, err
		}
		provider = enc
	default: // "encrypted" and unset fall back to the persisted, encrypted-at-rest backend.
		enc, err := newEncryptedProvider(bunrepo.NewSecretStore(db), cfg.Secrets.EncryptionKey, lgr)
		if err != nil {
			return nil, secrets.Reference{}, err
		}
		provider = enc
	}

	if cfg.Messaging.SES.From != "" {
		if _, err := provider.Get(ref); errors.Is(err, secrets.ErrNotFound) {
			if _, err := provider.Put(ref, []byte(cfg.Messaging.SES.From)); err != nil {
				return nil, secrets.Reference{}, fmt.Errorf("secrets: seed from-address: %w", err)
			}
		} else if err != nil {
			return nil, secrets.Reference{}, fmt.Errorf("secrets: lookup from-address: %w", err)
		}
	}

	var resolver secrets.Resolver = secrets.Registry{System: provider}
	if ttl := parseCacheTTL(cfg.Secrets.CacheTTL); ttl > 0 {
		resolver = secrets.NewCachingResolver(resolver, ttl)
	}
	return resolver, ref, nil
}

func newEncryptedProvider(store secretstore.Store, key string, lgr logger.Logger) (*secrets.EncryptedStoreProvider, error) {
	if len(key) != chacha20poly1305.KeySize {
		if key != "" {
			lgr.Warn("secrets: invalid encryption_key length, using built-in development key", "length", len(key))
		}
		key = defaultSecretEncryptionKey
	}
	return secrets.NewEncryptedStoreProvider(store, []byte(key))
}

func parseCacheTTL(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
		return ttl
	}
	return 0
}

func openDatabase(ctx context.Context, cfg config.PersistenceConfig) (*bun.DB, error) {
	if cfg.Driver != "" && cfg.Driver != "sqlite" {
		return nil, fmt.Errorf("persistence: unsupported driver %s", cfg.Driver)
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = config.Defaults().Persistence.DSN
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open sqlite: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := sqldb.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("persistence: enable foreign keys: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*domain.Event)(nil),
		(*domain.UserTraits)(nil),
		(*domain.SendRequest)(nil),
		(*domain.Suppression)(nil),
		(*domain.Decision)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("persistence: create table for %T: %w", model, err)
		}
	}
	if err := bunrepo.EnsureSecretsSchema(ctx, db); err != nil {
		return fmt.Errorf("persistence: create secrets table: %w", err)
	}
	return nil
}

// loggingActivityHook adapts the structured logger to the generic
// activity.Hook contract, giving the processor a live side-channel on
// top of the persisted Decision audit trail (SPEC_FULL.md §4).
type loggingActivityHook struct {
	log logger.Logger
}

func (h loggingActivityHook) Notify(_ context.Context, evt activity.Event) {
	h.log.Info("activity: decision",
		"verb", evt.Verb,
		"user_id", evt.UserID,
		"object_id", evt.ObjectID,
		"channel", evt.Channel,
		"metadata", evt.Metadata,
	)
}
