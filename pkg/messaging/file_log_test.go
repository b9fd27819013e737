package messaging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLogProviderAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	provider := NewFileLogProvider(path, nil)
	ctx := context.Background()

	if err := provider.SendMessage(ctx, "u1", "WELCOME_EMAIL", "email", "rule:welcome_email"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if err := provider.SendMessage(ctx, "u2", "FRAUD_ALERT", "internal", "rule:fraud_alert"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), contents)
	}
	if !strings.Contains(lines[0], "user_id=u1") || !strings.Contains(lines[0], "template=WELCOME_EMAIL") || !strings.Contains(lines[0], "channel=email") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "reason=rule:fraud_alert") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}
