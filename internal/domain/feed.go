package domain

import "time"

// FeedItemType discriminates the feed item union.
type FeedItemType string

const (
	FeedQuizReminder       FeedItemType = "QUIZ_REMINDER"
	FeedUpcomingEvent      FeedItemType = "UPCOMING_EVENT"
	FeedRegisteredSession  FeedItemType = "REGISTERED_SESSION"
	FeedRecommendedSession FeedItemType = "RECOMMENDED_SESSION"
	FeedGroupMatch         FeedItemType = "GROUP_MATCH"
)

// FeedItem is one entry of the personalized feed. Items are computed per
// request and never persisted. Exactly one of the variant pointers is set,
// matching Type.
type FeedItem struct {
	Type      FeedItemType `json:"type"`
	Priority  int          `json:"priority"`
	Timestamp time.Time    `json:"timestamp"`

	QuizReminder       *QuizReminderItem       `json:"quiz_reminder,omitempty"`
	UpcomingEvent      *UpcomingEventItem      `json:"upcoming_event,omitempty"`
	RegisteredSession  *SessionFeedItem        `json:"registered_session,omitempty"`
	RecommendedSession *RecommendedSessionItem `json:"recommended_session,omitempty"`
	GroupMatch         *GroupMatchItem         `json:"group_match,omitempty"`
}

// QuizReminderItem nudges the user to finish (or start) the role quiz.
type QuizReminderItem struct {
	Status            QuizStatus `json:"status"`
	Message           string     `json:"message"`
	CompletionPercent int        `json:"completion_percent"`
}

// UpcomingEventItem surfaces a calendar entry from one of the user's groups.
type UpcomingEventItem struct {
	Event     GroupEvent `json:"event"`
	GroupName string     `json:"group_name,omitempty"`
}

// SessionFeedItem surfaces a session the user already registered for.
type SessionFeedItem struct {
	Session StudySession `json:"session"`
}

// RecommendedSessionItem surfaces a session scored by topic overlap.
type RecommendedSessionItem struct {
	Session StudySession `json:"session"`
	Score   int          `json:"score"`
}

// GroupMatchItem surfaces a compatible study group.
type GroupMatchItem struct {
	Group      StudyGroup `json:"group"`
	Percentage int        `json:"percentage"`
	Reason     string     `json:"reason"`
}
