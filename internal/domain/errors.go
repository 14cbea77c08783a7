package domain

import "errors"

var (
	// ErrInsufficientItems is returned when a level has fewer than the 4
	// vocabulary items distractor selection requires.
	ErrInsufficientItems = errors.New("not enough vocabulary items to build challenges")
	// ErrDuplicateItem is returned when a vocabulary list repeats a word,
	// which would make option matching ambiguous.
	ErrDuplicateItem = errors.New("duplicate word in vocabulary items")
	// ErrContentGeneration indicates the content generator failed or
	// returned unusable data.
	ErrContentGeneration = errors.New("vocabulary generation failed")
	// ErrLevelNotFound indicates the level catalog has no such level.
	ErrLevelNotFound = errors.New("level not found")
	// ErrSessionNotFound is returned when a session ID is unknown or the
	// session has already been torn down.
	ErrSessionNotFound = errors.New("game session not found")
)
