package domain

// VocabularyItem is one word to learn. Items are produced by the content
// generator and never mutated; Word is the identity within a level.
type VocabularyItem struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Pinyin      string `json:"pinyin"`
	Emoji       string `json:"emoji"`
}

// ChallengeType enumerates the kinds of drill steps in a session.
type ChallengeType string

const (
	// ChallengeLearn presents an item with no answer expected.
	ChallengeLearn ChallengeType = "learn"
	// ChallengeListenFind plays the word first; the learner picks the matching item.
	ChallengeListenFind ChallengeType = "listen_find"
	// ChallengeWordMatch shows the word as text; the learner picks the matching item.
	ChallengeWordMatch ChallengeType = "word_match"
)

// Scored reports whether answers are accepted for this challenge type.
func (t ChallengeType) Scored() bool {
	return t == ChallengeListenFind || t == ChallengeWordMatch
}

// Challenge is one unit of learner interaction. Options is empty for learn
// challenges and holds exactly 4 word-unique items (target included, order
// randomized) for the scored types.
type Challenge struct {
	Type    ChallengeType    `json:"type"`
	Target  VocabularyItem   `json:"target"`
	Options []VocabularyItem `json:"options,omitempty"`
}

// AnswerState is the per-step answer outcome.
type AnswerState string

const (
	AnswerUnknown   AnswerState = "unknown"
	AnswerCorrect   AnswerState = "correct"
	AnswerIncorrect AnswerState = "incorrect"
)

// Level describes a playable level from the catalog. Items, when present,
// are pre-authored vocabulary used instead of calling the generator.
type Level struct {
	ID    string           `json:"id"`
	Topic string           `json:"topic"`
	Color string           `json:"color"`
	Items []VocabularyItem `json:"items,omitempty"`
}

// SessionSnapshot is a client-facing view of the session state, pushed to
// subscribers after every mutation.
type SessionSnapshot struct {
	SessionID  string      `json:"sessionId"`
	Color      string      `json:"color"`
	StepIndex  int         `json:"stepIndex"`
	TotalSteps int         `json:"totalSteps"`
	Challenge  *Challenge  `json:"challenge,omitempty"`
	Score      int         `json:"score"`
	Combo      int         `json:"combo"`
	Selected   string      `json:"selected,omitempty"`
	Answer     AnswerState `json:"answer"`
	Complete   bool        `json:"complete"`
}

// MinItems is the smallest vocabulary list a level can be played with:
// every scored challenge needs the target plus three distractors.
const MinItems = 4

// ValidateItems checks the queue-builder preconditions: at least MinItems
// entries and no repeated words.
func ValidateItems(items []VocabularyItem) error {
	if len(items) < MinItems {
		return ErrInsufficientItems
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.Word]; ok {
			return ErrDuplicateItem
		}
		seen[item.Word] = struct{}{}
	}
	return nil
}

// AnswerOutcome summarizes a single submission for the client.
type AnswerOutcome struct {
	Word    string `json:"word"`
	Correct bool   `json:"correct"`
	Awarded int    `json:"awarded"`
	Score   int    `json:"score"`
	Combo   int    `json:"combo"`
}
