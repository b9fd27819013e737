package messaging

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
)

// FileLogProvider is the spec-mandated messaging-provider stub: it
// appends one line per dispatched message to a local append-log file.
// Writes are serialized through a single mutex, matching the
// single-writer requirement in §5 for the shared append-log.
type FileLogProvider struct {
	mu   sync.Mutex
	path string
	log  logger.Logger
}

var _ Provider = (*FileLogProvider)(nil)

// NewFileLogProvider opens (creating if necessary) the append-log at path.
func NewFileLogProvider(path string, log logger.Logger) *FileLogProvider {
	if log == nil {
		log = &logger.Nop{}
	}
	return &FileLogProvider{path: path, log: log}
}

func (p *FileLogProvider) SendMessage(ctx context.Context, userID, templateName, channel, reason string) error {
	line := fmt.Sprintf("user_id=%s | template=%s | channel=%s | text=%s | reason=%s\n",
		userID, templateName, channel, Render(templateName, userID), reason)

	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("messaging: open append-log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("messaging: write append-log: %w", err)
	}
	p.log.Debug("messaging: dispatched", "user_id", userID, "template", templateName, "channel", channel)
	return nil
}
