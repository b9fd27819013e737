// Package commands exposes go-command compatible handlers for host
// transports that want to dispatch work without depending on the
// processor package directly (queue consumers, CLI tools, etc.). The
// HTTP surface in cmd/server calls the processor and audit projector
// directly, since it needs their return values; this wrapper exists for
// fire-and-forget callers.
package commands

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/marketing-messaging-service/internal/processor"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
)

// Catalog bundles the transport-agnostic command handlers.
type Catalog struct {
	ProcessEvent command.Commander[processor.EventIn]
}

// Dependencies wires the processor into the command catalog.
type Dependencies struct {
	Processor *processor.Processor
	Logger    logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Processor == nil {
		return nil, errors.New("commands: processor is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Catalog{
		ProcessEvent: processEventCommand{processor: deps.Processor, log: deps.Logger},
	}, nil
}

// processEventCommand adapts Processor.Process to the go-command
// Commander contract, discarding the Result for callers that only need
// the side effects: the persisted Decision row is the durable record.
type processEventCommand struct {
	processor *processor.Processor
	log       logger.Logger
}

func (c processEventCommand) Execute(ctx context.Context, msg processor.EventIn) error {
	result, err := c.processor.Process(ctx, msg)
	if err != nil {
		return err
	}
	c.log.Debug("commands: event processed", "user_id", result.UserID, "outcome", result.Outcome, "event_id", result.EventID.String())
	return nil
}
