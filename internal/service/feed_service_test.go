package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/messaging"
)

type feedFixture struct {
	svc      *FeedService
	profiles *fakeProfileRepo
	groups   *fakeGroupRepo
	sessions *fakeSessionRepo
	events   *fakeEventRepo
	topics   *fakeTopicRepo
	groupAgg *fakeGroupProfileRepo
}

func newFeedFixture() *feedFixture {
	profiles := newFakeProfileRepo()
	groups := newFakeGroupRepo()
	sessions := newFakeSessionRepo()
	events := &fakeEventRepo{}
	topics := &fakeTopicRepo{topics: make(map[string][]string)}

	groupProfileSvc, groupAgg := newGroupProfileService(groups, profiles)
	matching := NewMatchingService(groups, profiles, groupProfileSvc, zap.NewNop())
	quiz := NewQuizService(
		&fakeQuestionRepo{questions: quizQuestions(5)},
		&fakeConfigRepo{},
		newFakeAnswerRepo(),
		profiles,
		messaging.NewSyncBus(zap.NewNop()),
		zap.NewNop(),
	)
	seed := func(string, time.Time) int64 { return 42 }
	svc := NewFeedService(quiz, matching, groups, sessions, events, topics, seed, zap.NewNop())

	return &feedFixture{
		svc:      svc,
		profiles: profiles,
		groups:   groups,
		sessions: sessions,
		events:   events,
		topics:   topics,
		groupAgg: groupAgg,
	}
}

func (f *feedFixture) completeProfile(userID string) {
	f.profiles.profiles[userID] = domain.CharacteristicProfile{
		UserID:            userID,
		Roles:             leaderVector(0.8),
		QuizStatus:        domain.QuizCompleted,
		TotalQuestions:    5,
		AnsweredQuestions: 5,
	}
}

func feedItemKey(item domain.FeedItem) string {
	switch item.Type {
	case domain.FeedQuizReminder:
		return "reminder"
	case domain.FeedUpcomingEvent:
		return "event:" + item.UpcomingEvent.Event.ID
	case domain.FeedRegisteredSession:
		return "registered:" + item.RegisteredSession.Session.ID
	case domain.FeedRecommendedSession:
		return "recommended:" + item.RecommendedSession.Session.ID
	case domain.FeedGroupMatch:
		return "match:" + item.GroupMatch.Group.ID
	}
	return "unknown"
}

func TestFeed_QuizReminderOnlyOnFirstPage(t *testing.T) {
	f := newFeedFixture()
	now := time.Now().UTC()

	// membership plus calendar entries so later pages have content
	f.groups.addGroup(activeGroup("g1", "c1"), "u1")
	for i := 0; i < 6; i++ {
		f.events.events = append(f.events.events, domain.GroupEvent{
			ID:       fmt.Sprintf("e%d", i),
			GroupID:  "g1",
			Title:    "review",
			StartsAt: now.Add(time.Duration(i+1) * 24 * time.Hour),
		})
	}

	first, profileComplete, err := f.svc.GetFeedPage(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if profileComplete {
		t.Fatalf("profile must not be reported complete before the quiz is taken")
	}
	if len(first) == 0 || first[0].Type != domain.FeedQuizReminder {
		t.Fatalf("expected quiz reminder as very first item, got %+v", first)
	}
	if first[0].QuizReminder.Status != domain.QuizNotStarted {
		t.Fatalf("expected NOT_STARTED reminder, got %s", first[0].QuizReminder.Status)
	}

	second, _, err := f.svc.GetFeedPage(context.Background(), "u1", 4, 0)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	for _, item := range second {
		if item.Type == domain.FeedQuizReminder {
			t.Fatalf("reminder must not appear beyond the first page")
		}
	}
}

func TestFeed_InProgressReminderCarriesCompletion(t *testing.T) {
	f := newFeedFixture()
	f.profiles.profiles["u1"] = domain.CharacteristicProfile{
		UserID:            "u1",
		Roles:             leaderVector(0.4),
		QuizStatus:        domain.QuizInProgress,
		TotalQuestions:    5,
		AnsweredQuestions: 2,
	}

	page, _, err := f.svc.GetFeedPage(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) == 0 || page[0].Type != domain.FeedQuizReminder {
		t.Fatalf("expected reminder first, got %+v", page)
	}
	if page[0].QuizReminder.CompletionPercent != 40 {
		t.Fatalf("expected 40%% completion, got %d", page[0].QuizReminder.CompletionPercent)
	}
}

func TestFeed_NoReminderWhenCompleted(t *testing.T) {
	f := newFeedFixture()
	f.completeProfile("u1")

	page, profileComplete, err := f.svc.GetFeedPage(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if !profileComplete {
		t.Fatalf("completed quiz must report the profile as complete")
	}
	for _, item := range page {
		if item.Type == domain.FeedQuizReminder {
			t.Fatalf("completed quiz must not produce a reminder")
		}
	}
}

func TestFeed_PaginationIsStableAndDisjoint(t *testing.T) {
	f := newFeedFixture()
	now := time.Now().UTC()
	f.completeProfile("u1")
	f.groups.enrollments["u1"] = []string{"c1"}

	f.groups.addGroup(activeGroup("g-mine", "c1"), "u1")
	f.groups.addGroup(activeGroup("g-a", "c1"), "x")
	f.groups.addGroup(activeGroup("g-b", "c1"), "x")

	for i := 0; i < 3; i++ {
		f.events.events = append(f.events.events, domain.GroupEvent{
			ID:       fmt.Sprintf("e%d", i),
			GroupID:  "g-mine",
			Title:    "standup",
			StartsAt: now.Add(time.Duration(i+1) * 24 * time.Hour),
		})
	}

	for i := 0; i < 2; i++ {
		session := domain.StudySession{
			ID:        fmt.Sprintf("s-reg-%d", i),
			CourseID:  "c1",
			CreatorID: "someone",
			Status:    domain.SessionScheduled,
			StartsAt:  now.Add(time.Duration(i+2) * 24 * time.Hour),
		}
		f.sessions.sessions = append(f.sessions.sessions, session)
		f.sessions.register("u1", session.ID)
	}

	f.topics.topics["u1"] = []string{"algebra"}
	for i := 0; i < 2; i++ {
		f.sessions.sessions = append(f.sessions.sessions, domain.StudySession{
			ID:        fmt.Sprintf("s-rec-%d", i),
			CourseID:  "c9",
			CreatorID: "someone",
			Status:    domain.SessionScheduled,
			Tags:      []string{"algebra"},
			StartsAt:  now.Add(time.Duration(i+3) * 24 * time.Hour),
		})
	}

	seen := make(map[string]int)
	total := 0
	for offset := 0; offset < 40; offset += feedPageSize {
		page, _, err := f.svc.GetFeedPage(context.Background(), "u1", offset, 0)
		if err != nil {
			t.Fatalf("page at %d: %v", offset, err)
		}
		if len(page) == 0 {
			break
		}
		for _, item := range page {
			seen[feedItemKey(item)]++
			total++
		}
	}

	for key, count := range seen {
		if count != 1 {
			t.Fatalf("item %s appeared %d times across pages", key, count)
		}
	}
	// 3 events + 2 matches + 2 registered + 2 recommended
	if total != 9 {
		t.Fatalf("expected 9 distinct feed items, got %d", total)
	}
}

func TestFeed_FirstItemsSpanCategories(t *testing.T) {
	f := newFeedFixture()
	now := time.Now().UTC()
	f.completeProfile("u1")
	f.groups.enrollments["u1"] = []string{"c1"}

	f.groups.addGroup(activeGroup("g-mine", "c1"), "u1")
	f.groups.addGroup(activeGroup("g-match", "c1"), "x")
	f.events.events = append(f.events.events, domain.GroupEvent{
		ID: "e1", GroupID: "g-mine", Title: "review", StartsAt: now.Add(24 * time.Hour),
	})

	registered := domain.StudySession{
		ID: "s-reg", CourseID: "c1", CreatorID: "someone",
		Status: domain.SessionScheduled, StartsAt: now.Add(48 * time.Hour),
	}
	f.sessions.sessions = append(f.sessions.sessions, registered)
	f.sessions.register("u1", registered.ID)

	f.topics.topics["u1"] = []string{"calculus"}
	f.sessions.sessions = append(f.sessions.sessions, domain.StudySession{
		ID: "s-rec", CourseID: "c9", CreatorID: "someone",
		Status: domain.SessionScheduled, Tags: []string{"calculus"},
		StartsAt: now.Add(72 * time.Hour),
	})

	page, _, err := f.svc.GetFeedPage(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 4 {
		t.Fatalf("expected a full page of 4, got %d", len(page))
	}
	types := make(map[domain.FeedItemType]bool)
	for _, item := range page {
		types[item.Type] = true
	}
	if len(types) != 4 {
		t.Fatalf("first page must span all four categories, got %v", types)
	}
}

func TestFeed_SkipsFullGroupMatches(t *testing.T) {
	f := newFeedFixture()
	f.completeProfile("u1")
	f.groups.enrollments["u1"] = []string{"c1"}

	full := activeGroup("g-full", "c1")
	full.Capacity = 1
	f.groups.addGroup(full, "x")

	page, _, err := f.svc.GetFeedPage(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	for _, item := range page {
		if item.Type == domain.FeedGroupMatch {
			t.Fatalf("full groups must not surface in the feed")
		}
	}
}

func TestFeed_RecommendedSessionRules(t *testing.T) {
	f := newFeedFixture()
	now := time.Now().UTC()
	f.completeProfile("u1")
	f.groups.enrollments["u1"] = []string{"c1"}
	f.topics.topics["u1"] = []string{"algebra", "graph theory"}

	add := func(id, courseID, creatorID string, tags []string) {
		f.sessions.sessions = append(f.sessions.sessions, domain.StudySession{
			ID:        id,
			CourseID:  courseID,
			CreatorID: creatorID,
			Status:    domain.SessionScheduled,
			Tags:      tags,
			StartsAt:  now.Add(5 * 24 * time.Hour),
		})
	}

	add("s-match", "c9", "someone", []string{"Algebra II"})
	add("s-own", "c9", "u1", []string{"algebra"})
	add("s-registered", "c9", "someone", []string{"algebra"})
	f.sessions.register("u1", "s-registered")
	add("s-no-overlap", "c9", "someone", []string{"pottery"})
	add("s-enrolled-course", "c1", "someone", []string{"pottery"})

	items, err := f.svc.recommendedSessionItems(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	scores := make(map[string]int)
	for _, item := range items {
		scores[item.RecommendedSession.Session.ID] = item.RecommendedSession.Score
	}

	if _, ok := scores["s-own"]; ok {
		t.Fatalf("own sessions must be excluded")
	}
	if _, ok := scores["s-registered"]; ok {
		t.Fatalf("registered sessions must be excluded")
	}
	if _, ok := scores["s-no-overlap"]; ok {
		t.Fatalf("zero-score sessions must be excluded")
	}
	// one of two topics matched by substring
	if got := scores["s-match"]; got != 50 {
		t.Fatalf("expected substring overlap score 50, got %d", got)
	}
	if got := scores["s-enrolled-course"]; got != enrolledScoreFloor {
		t.Fatalf("expected enrolled-course floor %d, got %d", enrolledScoreFloor, got)
	}
}

func TestFeed_RecommendedSessionsSortedByScore(t *testing.T) {
	f := newFeedFixture()
	now := time.Now().UTC()
	f.completeProfile("u1")
	f.topics.topics["u1"] = []string{"algebra", "calculus"}

	add := func(id string, tags []string, startsIn time.Duration) {
		f.sessions.sessions = append(f.sessions.sessions, domain.StudySession{
			ID:        id,
			CourseID:  "c9",
			CreatorID: "someone",
			Status:    domain.SessionScheduled,
			Tags:      tags,
			StartsAt:  now.Add(startsIn),
		})
	}

	// half overlap starts first, full overlap starts last
	add("s-half", []string{"algebra"}, 24*time.Hour)
	add("s-full", []string{"algebra", "calculus"}, 72*time.Hour)
	add("s-half-late", []string{"calculus"}, 48*time.Hour)

	items, err := f.svc.recommendedSessionItems(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(items))
	}

	var got []string
	for _, item := range items {
		got = append(got, item.RecommendedSession.Session.ID)
	}
	// score 100 first, then the two 50s ordered by start time
	want := []string{"s-full", "s-half", "s-half-late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i].RecommendedSession.Score > items[i-1].RecommendedSession.Score {
			t.Fatalf("scores must not ascend: %v", got)
		}
	}
}

func TestTopicOverlapScore(t *testing.T) {
	cases := []struct {
		topics []string
		tags   []string
		want   int
	}{
		{nil, []string{"algebra"}, 0},
		{[]string{"algebra"}, nil, 0},
		{[]string{"algebra"}, []string{"algebra"}, 100},
		{[]string{"Algebra"}, []string{"aLgEbRa"}, 100},
		{[]string{"algebra"}, []string{"Algebra II"}, 100},
		{[]string{"algebra", "pottery"}, []string{"algebra"}, 50},
		{[]string{"a", "b", "c"}, []string{"a", "c"}, 67},
	}
	for _, tc := range cases {
		if got := topicOverlapScore(tc.topics, tc.tags); got != tc.want {
			t.Errorf("topics %v tags %v: expected %d, got %d", tc.topics, tc.tags, tc.want, got)
		}
	}
}
