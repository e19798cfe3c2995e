package api

import (
	"context"

	"github.com/rbeezley/myk9q-scoring/internal/models"
)

type clientKey struct{}

// ClientFromContext returns the authenticated API client, or nil
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, _ := ctx.Value(clientKey{}).(*models.ApiClient)
	return client
}

// ContextWithClient attaches the authenticated API client
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// clientName is the caller name used in audit log lines
func clientName(ctx context.Context) string {
	if c := ClientFromContext(ctx); c != nil {
		return c.Name
	}
	return ""
}
