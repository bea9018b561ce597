// Package context carries log-correlation values: the organization being
// processed and the acting principal (a technician, the scheduler, a seed).
package context

import (
	"context"
	"strings"
)

type contextKey string

const (
	orgIDKey contextKey = "observability.org_id"
	actorKey contextKey = "observability.actor"
)

type actor struct {
	Type string
	ID   string
}

// WithOrgID stores the organization identifier on the context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ctx
	}
	return context.WithValue(ctx, orgIDKey, orgID)
}

// OrgIDFromContext returns the organization identifier or an empty string.
func OrgIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(orgIDKey).(string); ok {
		return value
	}
	return ""
}

// WithActor stores the acting principal on the context.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actor{
		Type: strings.TrimSpace(actorType),
		ID:   strings.TrimSpace(actorID),
	})
}

// ActorFromContext returns the actor type and id, or empty strings.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	if value, ok := ctx.Value(actorKey).(actor); ok {
		return value.Type, value.ID
	}
	return "", ""
}
