// Package content produces level vocabulary, either from an AI text service
// or from canned sets.
package content

import (
	"context"

	"vocab-drill-service/internal/domain"
)

// Generator produces an ordered vocabulary list for a topic. Failures wrap
// domain.ErrContentGeneration; results are validated by the level
// repositories before any queue is built, so a short or duplicate-ridden
// list never reaches a session.
type Generator interface {
	Generate(ctx context.Context, topic string) ([]domain.VocabularyItem, error)
}
