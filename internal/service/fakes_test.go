package service

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"study-match/internal/domain"
)

type fakeQuestionRepo struct {
	questions []domain.QuizQuestion
}

func (f *fakeQuestionRepo) ListActive(_ context.Context) ([]domain.QuizQuestion, error) {
	return f.questions, nil
}

type fakeConfigRepo struct {
	ids []string
}

func (f *fakeConfigRepo) SelectedQuestionIDs(_ context.Context) ([]string, error) {
	return f.ids, nil
}

type fakeAnswerRepo struct {
	byUser    map[string][]domain.QuizAnswer
	insertErr error
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{byUser: make(map[string][]domain.QuizAnswer)}
}

func (f *fakeAnswerRepo) ListByUser(_ context.Context, userID string) ([]domain.QuizAnswer, error) {
	return f.byUser[userID], nil
}

func (f *fakeAnswerRepo) InsertBatch(_ context.Context, answers []domain.QuizAnswer) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, a := range answers {
		f.byUser[a.UserID] = append(f.byUser[a.UserID], a)
	}
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]domain.CharacteristicProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]domain.CharacteristicProfile)}
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile domain.CharacteristicProfile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (domain.CharacteristicProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return domain.CharacteristicProfile{}, pgx.ErrNoRows
	}
	return profile, nil
}

type fakeGroupRepo struct {
	groups      map[string]domain.StudyGroup
	members     map[string]map[string]bool
	enrollments map[string][]string
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:      make(map[string]domain.StudyGroup),
		members:     make(map[string]map[string]bool),
		enrollments: make(map[string][]string),
	}
}

func (f *fakeGroupRepo) addGroup(group domain.StudyGroup, memberIDs ...string) {
	f.groups[group.ID] = group
	set := make(map[string]bool)
	for _, id := range memberIDs {
		set[id] = true
	}
	f.members[group.ID] = set
}

func (f *fakeGroupRepo) Create(_ context.Context, group domain.StudyGroup) error {
	f.groups[group.ID] = group
	f.members[group.ID] = map[string]bool{group.CreatorID: true}
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, groupID string) (domain.StudyGroup, error) {
	group, ok := f.groups[groupID]
	if !ok {
		return domain.StudyGroup{}, pgx.ErrNoRows
	}
	group.MemberCount = len(f.members[groupID])
	return group, nil
}

func (f *fakeGroupRepo) ListMemberIDs(_ context.Context, groupID string) ([]string, error) {
	var ids []string
	for id := range f.members[groupID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeGroupRepo) ListGroupIDsOfUser(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for groupID, set := range f.members {
		if set[userID] {
			ids = append(ids, groupID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeGroupRepo) ListActiveByCourses(_ context.Context, courseIDs []string) ([]domain.StudyGroup, error) {
	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	var groups []domain.StudyGroup
	for _, group := range f.groups {
		if group.Status == domain.GroupActive && wanted[group.CourseID] {
			group.MemberCount = len(f.members[group.ID])
			groups = append(groups, group)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (f *fakeGroupRepo) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return f.members[groupID][userID], nil
}

func (f *fakeGroupRepo) AddMember(_ context.Context, groupID, userID string) error {
	if f.members[groupID] == nil {
		f.members[groupID] = make(map[string]bool)
	}
	f.members[groupID][userID] = true
	return nil
}

func (f *fakeGroupRepo) RemoveMember(_ context.Context, groupID, userID string) error {
	delete(f.members[groupID], userID)
	return nil
}

func (f *fakeGroupRepo) EnrolledCourseIDs(_ context.Context, userID string) ([]string, error) {
	return f.enrollments[userID], nil
}

type fakeGroupProfileRepo struct {
	profiles map[string]domain.GroupCharacteristicProfile
	upserts  int
}

func newFakeGroupProfileRepo() *fakeGroupProfileRepo {
	return &fakeGroupProfileRepo{profiles: make(map[string]domain.GroupCharacteristicProfile)}
}

func (f *fakeGroupProfileRepo) Upsert(_ context.Context, profile domain.GroupCharacteristicProfile) error {
	f.profiles[profile.GroupID] = profile
	f.upserts++
	return nil
}

func (f *fakeGroupProfileRepo) GetByGroupID(_ context.Context, groupID string) (domain.GroupCharacteristicProfile, error) {
	profile, ok := f.profiles[groupID]
	if !ok {
		return domain.GroupCharacteristicProfile{}, pgx.ErrNoRows
	}
	return profile, nil
}

func (f *fakeGroupProfileRepo) Exists(_ context.Context, groupID string) (bool, error) {
	_, ok := f.profiles[groupID]
	return ok, nil
}

type fakeSessionRepo struct {
	sessions      []domain.StudySession
	registrations map[string]map[string]bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{registrations: make(map[string]map[string]bool)}
}

func (f *fakeSessionRepo) register(userID, sessionID string) {
	if f.registrations[userID] == nil {
		f.registrations[userID] = make(map[string]bool)
	}
	f.registrations[userID][sessionID] = true
}

func (f *fakeSessionRepo) ListRegisteredUpcoming(_ context.Context, userID string, from time.Time) ([]domain.StudySession, error) {
	var out []domain.StudySession
	for _, s := range f.sessions {
		if f.registrations[userID][s.ID] && s.Status == domain.SessionScheduled && s.StartsAt.After(from) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListScheduledWithin(_ context.Context, from, until time.Time) ([]domain.StudySession, error) {
	var out []domain.StudySession
	for _, s := range f.sessions {
		if s.Status == domain.SessionScheduled && s.StartsAt.After(from) && !s.StartsAt.After(until) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) RegisteredSessionIDs(_ context.Context, userID string) (map[string]bool, error) {
	ids := make(map[string]bool)
	for id := range f.registrations[userID] {
		ids[id] = true
	}
	return ids, nil
}

type fakeEventRepo struct {
	events []domain.GroupEvent
}

func (f *fakeEventRepo) ListUpcomingForGroups(_ context.Context, groupIDs []string, from, until time.Time) ([]domain.GroupEvent, error) {
	wanted := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = true
	}
	var out []domain.GroupEvent
	for _, e := range f.events {
		if wanted[e.GroupID] && e.StartsAt.After(from) && !e.StartsAt.After(until) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTopicRepo struct {
	topics map[string][]string
}

func (f *fakeTopicRepo) ListUserTopics(_ context.Context, userID string) ([]string, error) {
	return f.topics[userID], nil
}

type fakeUserRepo struct {
	byEmail map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}
