package app

import (
	"math/rand"

	"vocab-drill-service/internal/domain"
)

const optionCount = 4

// BuildQueue turns a vocabulary list into the ordered drill sequence for one
// play-through: for each item in input order a learn step followed by a
// listen-and-find step, then one word-match review step per item, shuffled as
// a block and appended. Scored steps carry the target plus three distractors
// drawn without replacement, in random order.
func BuildQueue(rnd *rand.Rand, items []domain.VocabularyItem) ([]domain.Challenge, error) {
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}

	queue := make([]domain.Challenge, 0, 3*len(items))
	for i, item := range items {
		queue = append(queue, domain.Challenge{Type: domain.ChallengeLearn, Target: item})
		queue = append(queue, domain.Challenge{
			Type:    domain.ChallengeListenFind,
			Target:  item,
			Options: pickOptions(rnd, items, i),
		})
	}

	review := make([]domain.Challenge, 0, len(items))
	for i, item := range items {
		review = append(review, domain.Challenge{
			Type:    domain.ChallengeWordMatch,
			Target:  item,
			Options: pickOptions(rnd, items, i),
		})
	}
	rnd.Shuffle(len(review), func(a, b int) {
		review[a], review[b] = review[b], review[a]
	})

	return append(queue, review...), nil
}

// pickOptions returns the item at targetIdx plus optionCount-1 distractors
// sampled uniformly from the rest, in random order.
func pickOptions(rnd *rand.Rand, items []domain.VocabularyItem, targetIdx int) []domain.VocabularyItem {
	distractors := make([]domain.VocabularyItem, 0, len(items)-1)
	for i, item := range items {
		if i != targetIdx {
			distractors = append(distractors, item)
		}
	}
	rnd.Shuffle(len(distractors), func(a, b int) {
		distractors[a], distractors[b] = distractors[b], distractors[a]
	})

	options := make([]domain.VocabularyItem, 0, optionCount)
	options = append(options, items[targetIdx])
	options = append(options, distractors[:optionCount-1]...)
	rnd.Shuffle(len(options), func(a, b int) {
		options[a], options[b] = options[b], options[a]
	})
	return options
}
