// Package suppression implements the per-template send-frequency gate
// that sits between the rule evaluator and the messaging provider.
package suppression

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/goliatone/marketing-messaging-service/pkg/ruleengine"
)

// Gate evaluates a RuleDecision against the suppression-mode decision
// table in §4.3.
type Gate struct {
	sendRequests store.SendRequestRepository
	log          logger.Logger
}

// New builds a Gate. log may be nil, in which case a no-op logger is used.
func New(sendRequests store.SendRequestRepository, log logger.Logger) *Gate {
	if log == nil {
		log = &logger.Nop{}
	}
	return &Gate{sendRequests: sendRequests, log: log}
}

// Evaluate returns the outcome and, when suppressing, the suppression
// reason code. eventTimestamp is the triggering event's instant, used as
// the window anchor for once_per_calendar_day.
func (g *Gate) Evaluate(ctx context.Context, userID string, decision ruleengine.RuleDecision, eventTimestamp time.Time) (outcome string, reason string, err error) {
	switch decision.ActionType {
	case domain.ActionTypeNone:
		return domain.OutcomeNone, "", nil
	case domain.ActionTypeAlert:
		// Alerts bypass suppression unconditionally.
		return domain.OutcomeAlert, "", nil
	case domain.ActionTypeSend:
		return g.evaluateSend(ctx, userID, decision, eventTimestamp)
	default:
		return domain.OutcomeNone, "", nil
	}
}

func (g *Gate) evaluateSend(ctx context.Context, userID string, decision ruleengine.RuleDecision, eventTimestamp time.Time) (string, string, error) {
	switch decision.SuppressionMode {
	case "", domain.SuppressionModeNone:
		return domain.OutcomeAllow, "", nil
	case domain.SuppressionModeOnceEver:
		exists, err := g.sendRequests.ExistsForUserAndTemplate(ctx, userID, decision.TemplateName)
		if err != nil {
			return "", "", err
		}
		if exists {
			return domain.OutcomeSuppress, domain.SuppressionModeOnceEver, nil
		}
		return domain.OutcomeAllow, "", nil
	case domain.SuppressionModeOncePerCalendarDay:
		exists, err := g.sendRequests.ExistsInDaySoFar(ctx, userID, decision.TemplateName, eventTimestamp)
		if err != nil {
			return "", "", err
		}
		if exists {
			return domain.OutcomeSuppress, domain.SuppressionModeOncePerCalendarDay, nil
		}
		return domain.OutcomeAllow, "", nil
	default:
		g.log.Warn("suppression: unknown mode, failing open", "mode", decision.SuppressionMode, "user_id", userID, "template", decision.TemplateName)
		return domain.OutcomeAllow, "", nil
	}
}
