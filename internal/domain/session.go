package domain

import "time"

// SessionStatus is the lifecycle state of an expert/study session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionFinished  SessionStatus = "FINISHED"
)

// StudySession is the session-booking collaborator's record: schedule
// window, status, capacity, owning course and topic tags.
type StudySession struct {
	ID              string        `json:"id"`
	CourseID        string        `json:"course_id"`
	CreatorID       string        `json:"creator_id"`
	Title           string        `json:"title"`
	Status          SessionStatus `json:"status"`
	Capacity        int           `json:"capacity"`
	RegisteredCount int           `json:"registered_count"`
	Tags            []string      `json:"tags"`
	StartsAt        time.Time     `json:"starts_at"`
	EndsAt          time.Time     `json:"ends_at"`
	CreatedAt       time.Time     `json:"created_at"`
}

// IsFull reports whether the session has no open seats. Capacity 0 means
// unbounded.
func (s StudySession) IsFull() bool {
	return s.Capacity > 0 && s.RegisteredCount >= s.Capacity
}
