package domain

import "time"

// QuizStatus tracks how far a user got through the role quiz.
type QuizStatus string

const (
	QuizNotStarted QuizStatus = "NOT_STARTED"
	QuizInProgress QuizStatus = "IN_PROGRESS"
	QuizCompleted  QuizStatus = "COMPLETED"
	QuizSkipped    QuizStatus = "SKIPPED"
)

// CharacteristicProfile is a user's role fingerprint. It is created lazily
// on the first quiz answer or skip and never deleted afterwards.
type CharacteristicProfile struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Roles             RoleVector `json:"roles"`
	QuizStatus        QuizStatus `json:"quiz_status"`
	TotalQuestions    int        `json:"total_questions"`
	AnsweredQuestions int        `json:"answered_questions"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ReliabilityPercentage is the fraction of quiz questions answered so far.
func (p CharacteristicProfile) ReliabilityPercentage() float64 {
	if p.TotalQuestions == 0 {
		return 0
	}
	return float64(p.AnsweredQuestions) / float64(p.TotalQuestions)
}

// GroupCharacteristicProfile is the derived per-group aggregate: the mean
// role vector over members that have a profile, plus a variance diagnostic.
// It is a cache and may trail the true membership state.
type GroupCharacteristicProfile struct {
	GroupID         string     `json:"group_id"`
	AverageRoles    RoleVector `json:"average_roles"`
	CurrentVariance float64    `json:"current_variance"`
	MemberCount     int        `json:"member_count"`
	LastUpdatedAt   time.Time  `json:"last_updated_at"`
}
