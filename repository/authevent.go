package repository

import (
	"context"

	"github.com/wikigo/backend/domain"
)

type AuthEventRepository interface {
	InsertBatch(ctx context.Context, events []domain.AuthEvent) error
}
