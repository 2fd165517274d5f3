package audit

import (
	"context"
	"errors"
	"strings"

	"academy.org/internal/auth"
	"academy.org/internal/obs"
)

// Login events.
const (
	EventLoginSucceeded = "auth.login.succeeded"
	EventLoginFailed    = "auth.login.failed"
	EventAccessDenied   = "authz.denied"
)

// LogEvent writes an audit log entry enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}

	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}

	entry := obs.Ctx(ctx).Info().
		Str("type", "audit").
		Str("event", event)
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		entry = entry.Str("subject", p.Subject())
	}
	entry.Interface("fields", copyFields).Send()
	return nil
}
