package messaging

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
	"github.com/goliatone/marketing-messaging-service/pkg/secrets"
)

// SESConfig configures the SES-backed email provider.
type SESConfig struct {
	From             string
	Region           string
	ConfigurationSet string
	// SecretRef, when non-zero, is resolved through the Secrets resolver
	// to recover a from-address override stored at rest.
	SecretRef secrets.Reference
}

// sesClient abstracts ses.Client for testing.
type sesClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider delivers the "email" channel via AWS SES, falling back to
// a FileLogProvider for every other channel. Credentials for the
// configured from-address may be stored at rest through pkg/secrets and
// resolved lazily on first use.
type SESProvider struct {
	cfg      SESConfig
	client   sesClient
	secrets  secrets.Resolver
	fallback Provider
	log      logger.Logger
}

var _ Provider = (*SESProvider)(nil)

// NewSESProvider builds a provider that sends "email" channel messages
// through SES and delegates everything else to fallback.
func NewSESProvider(cfg SESConfig, resolver secrets.Resolver, fallback Provider, log logger.Logger) *SESProvider {
	if log == nil {
		log = &logger.Nop{}
	}
	return &SESProvider{cfg: cfg, secrets: resolver, fallback: fallback, log: log}
}

func (p *SESProvider) SendMessage(ctx context.Context, userID, templateName, channel, reason string) error {
	if channel != "email" {
		return p.fallback.SendMessage(ctx, userID, templateName, channel, reason)
	}

	if err := p.ensureClient(ctx); err != nil {
		return err
	}

	from, err := p.resolveFrom()
	if err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{userID}},
		Source:      awsconfig.String(from),
		Message: &types.Message{
			Subject: &types.Content{Data: awsconfig.String(templateName)},
			Body: &types.Body{
				Text: &types.Content{Data: awsconfig.String(Render(templateName, userID))},
			},
		},
	}
	if cs := strings.TrimSpace(p.cfg.ConfigurationSet); cs != "" {
		input.ConfigurationSetName = awsconfig.String(cs)
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("messaging: ses send email: %w", err)
	}
	p.log.Info("messaging: ses dispatched", "user_id", userID, "template", templateName)
	return nil
}

func (p *SESProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.cfg.Region))
	if err != nil {
		return fmt.Errorf("messaging: load aws config: %w", err)
	}
	p.client = ses.NewFromConfig(cfg, func(o *ses.Options) {
		o.RetryMaxAttempts = 3
	})
	return nil
}

func (p *SESProvider) resolveFrom() (string, error) {
	if p.secrets == nil || p.cfg.SecretRef == (secrets.Reference{}) {
		return p.cfg.From, nil
	}
	resolved, err := p.secrets.Resolve(p.cfg.SecretRef)
	if err != nil {
		return "", fmt.Errorf("messaging: resolve from-address secret: %w", err)
	}
	val, ok := resolved[p.cfg.SecretRef]
	if !ok || len(val.Data) == 0 {
		return p.cfg.From, nil
	}
	p.log.Debug("messaging: resolved from-address secret", "masked", secrets.MaskValues(resolved))
	return string(val.Data), nil
}
