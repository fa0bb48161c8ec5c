package domain

import "time"

// QuizQuestion is one question of the role quiz together with its options.
// Position orders questions inside the active set.
type QuizQuestion struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Position int          `json:"position"`
	Active   bool         `json:"active"`
	Options  []QuizOption `json:"options"`
}

// QuizOption carries a weight per role. A single option may contribute to
// several roles at different weights; it is not a one-hot encoding.
type QuizOption struct {
	ID         string               `json:"id"`
	QuestionID string               `json:"question_id"`
	Text       string               `json:"text"`
	Weights    map[RoleType]float64 `json:"weights"`
}

// QuizAnswer records that a user picked one option for one question.
// A question can be answered at most once per user.
type QuizAnswer struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	OptionID   string    `json:"option_id"`
	CreatedAt  time.Time `json:"created_at"`
}
