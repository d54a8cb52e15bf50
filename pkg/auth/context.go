package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyPartnerID is the context key for the authenticated partner id
	ContextKeyPartnerID contextKey = "partner_id"
	// ContextKeyRole is the context key for the partner's role
	ContextKeyRole contextKey = "partner_role"
)

// WithPartnerID adds the partner id to the context
func WithPartnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyPartnerID, id)
}

// PartnerIDFromContext retrieves the partner id from the context
func PartnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyPartnerID).(string)
	return id, ok
}

// WithRole adds the partner role to the context
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RoleFromContext retrieves the partner role from the context
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ContextKeyRole).(string)
	return role, ok
}
