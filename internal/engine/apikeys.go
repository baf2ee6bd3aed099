package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

// CreateAPIKey mints a new key and returns the record plus the raw secret.
// Only the SHA-256 hash is stored; the secret cannot be recovered later.
func (e Engine) CreateAPIKey(ctx context.Context, name, role string) (domain.APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.APIKey{}, "", invalid("api_key", "name", "is required")
	}
	if strings.TrimSpace(role) == "" {
		return domain.APIKey{}, "", invalid("api_key", "role", "is required")
	}
	raw := "tos_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	key := domain.APIKey{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      role,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.nowRFC3339(),
	}
	if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
		return domain.APIKey{}, "", storage("api_key", "insert", err)
	}
	return key, raw, nil
}
