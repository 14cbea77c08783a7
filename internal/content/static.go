package content

import (
	"context"
	"fmt"

	"vocab-drill-service/internal/domain"
)

// StaticGenerator serves canned vocabulary sets keyed by topic (useful for
// tests/demos and deployments without an AI key).
type StaticGenerator struct {
	sets map[string][]domain.VocabularyItem
}

func NewStaticGenerator(sets map[string][]domain.VocabularyItem) *StaticGenerator {
	return &StaticGenerator{sets: sets}
}

func (g *StaticGenerator) Generate(_ context.Context, topic string) ([]domain.VocabularyItem, error) {
	items, ok := g.sets[topic]
	if !ok {
		return nil, fmt.Errorf("%w: no canned vocabulary for topic %q", domain.ErrContentGeneration, topic)
	}
	return items, nil
}
