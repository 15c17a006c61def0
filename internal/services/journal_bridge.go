package services

import (
	"context"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/usecase"
)

// JournalBridge adapts the processor to the recorder port the use cases
// depend on.
type JournalBridge struct {
	processor *JournalProcessor
}

func NewJournalBridge(processor *JournalProcessor) *JournalBridge {
	return &JournalBridge{processor: processor}
}

func (b *JournalBridge) Record(ctx context.Context, event domain.AuthEvent) error {
	if b == nil || b.processor == nil {
		return nil
	}
	return b.processor.Record(ctx, event)
}

var _ usecase.AuthEventRecorder = (*JournalBridge)(nil)
