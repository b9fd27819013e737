// Package messaging abstracts the external message-delivery capability
// the event processor calls for allow/alert outcomes.
package messaging

import "context"

// Provider is the external collaborator named in spec §6:
// send_message(user_id, template, channel, reason) -> unit.
type Provider interface {
	SendMessage(ctx context.Context, userID, templateName, channel, reason string) error
}

// Render produces the deterministic message body logged/delivered for a
// given template. There is no templating engine in scope; the body is a
// stable, human-readable placeholder identifying the template and user.
func Render(templateName, userID string) string {
	return templateName + " notification for " + userID
}
