package usecase

import (
	"context"

	"github.com/wikigo/backend/domain"
)

// AuthEventRecorder abstracts the audit journal so use cases stay
// storage-agnostic. Recording is best-effort; failures never fail the
// authentication request itself.
type AuthEventRecorder interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}
