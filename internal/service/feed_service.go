package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/repository"
)

const (
	feedPageSize       = 4
	feedMaxPageSize    = 20
	feedCategoryCap    = 20
	eventLookahead     = 14 * 24 * time.Hour
	sessionLookahead   = 30 * 24 * time.Hour
	enrolledScoreFloor = 75
)

// SeedFunc derives the shuffle seed for one feed request. The default is
// stable per user per day, so pages requested at different offsets see the
// same ordering.
type SeedFunc func(userID string, now time.Time) int64

// DailySeed keeps the category shuffle stable across one calendar day.
func DailySeed(userID string, now time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte(now.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}

// FeedService assembles the personalized home feed on demand. Nothing is
// persisted: every page is recomputed from current state.
type FeedService struct {
	quiz     *QuizService
	matching *MatchingService
	groups   repository.GroupRepository
	sessions repository.SessionRepository
	events   repository.GroupEventRepository
	topics   repository.TopicRepository
	seed     SeedFunc
	logger   *zap.Logger
}

func NewFeedService(
	quiz *QuizService,
	matching *MatchingService,
	groups repository.GroupRepository,
	sessions repository.SessionRepository,
	events repository.GroupEventRepository,
	topics repository.TopicRepository,
	seed SeedFunc,
	logger *zap.Logger,
) *FeedService {
	if seed == nil {
		seed = DailySeed
	}
	return &FeedService{
		quiz:     quiz,
		matching: matching,
		groups:   groups,
		sessions: sessions,
		events:   events,
		topics:   topics,
		seed:     seed,
		logger:   logger,
	}
}

// GetFeedPage returns one page of the feed plus whether the user's profile
// is complete (quiz finished). The quiz reminder, when due, is always the
// first item of the whole feed, so it only ever appears on the offset-zero
// page. pageSize 0 falls back to the default of 4.
func (s *FeedService) GetFeedPage(ctx context.Context, userID string, offset, pageSize int) ([]domain.FeedItem, bool, error) {
	if offset < 0 {
		offset = 0
	}
	if pageSize <= 0 {
		pageSize = feedPageSize
	}
	if pageSize > feedMaxPageSize {
		pageSize = feedMaxPageSize
	}
	now := time.Now().UTC()

	feed, profileComplete, err := s.assembleFeed(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}

	if offset >= len(feed) {
		return []domain.FeedItem{}, profileComplete, nil
	}
	end := offset + pageSize
	if end > len(feed) {
		end = len(feed)
	}
	page := feed[offset:end]

	s.logger.Debug("feed page assembled",
		zap.String("user_id", userID),
		zap.Int("offset", offset),
		zap.Int("items", len(page)),
		zap.Int("feed_size", len(feed)),
	)
	return page, profileComplete, nil
}

func (s *FeedService) assembleFeed(ctx context.Context, userID string, now time.Time) ([]domain.FeedItem, bool, error) {
	profile, err := s.quiz.ProfileSummary(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}

	categories, err := s.buildCategories(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}

	rng := rand.New(rand.NewSource(s.seed(userID, now)))
	rng.Shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})

	feed := make([]domain.FeedItem, 0, feedPageSize)
	if reminder, due := quizReminder(profile, now); due {
		feed = append(feed, reminder)
	}
	feed = append(feed, interleave(categories)...)
	return feed, profile.QuizStatus == domain.QuizCompleted, nil
}

// buildCategories collects the four content categories, each capped so a
// single prolific source cannot starve the rest.
func (s *FeedService) buildCategories(ctx context.Context, userID string, now time.Time) ([][]domain.FeedItem, error) {
	upcomingEvents, err := s.upcomingEventItems(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	groupMatches, err := s.groupMatchItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	registered, err := s.registeredSessionItems(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	recommended, err := s.recommendedSessionItems(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return [][]domain.FeedItem{
		capItems(upcomingEvents),
		capItems(groupMatches),
		capItems(registered),
		capItems(recommended),
	}, nil
}

func (s *FeedService) upcomingEventItems(ctx context.Context, userID string, now time.Time) ([]domain.FeedItem, error) {
	groupIDs, err := s.groups.ListGroupIDsOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	events, err := s.events.ListUpcomingForGroups(ctx, groupIDs, now, now.Add(eventLookahead))
	if err != nil {
		return nil, fmt.Errorf("load group events: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(events))
	for _, event := range events {
		items = append(items, domain.FeedItem{
			Type:          domain.FeedUpcomingEvent,
			Priority:      2,
			Timestamp:     event.StartsAt,
			UpcomingEvent: &domain.UpcomingEventItem{Event: event},
		})
	}
	return items, nil
}

// groupMatchItems reuses the ranking engine and additionally requires open
// capacity: a full group is still a valid match on the detail page but dead
// weight in the feed.
func (s *FeedService) groupMatchItems(ctx context.Context, userID string) ([]domain.FeedItem, error) {
	recommendations, err := s.matching.RankGroupsForStudent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rank groups: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(recommendations))
	for _, rec := range recommendations {
		if !rec.Group.HasOpenCapacity() {
			continue
		}
		items = append(items, domain.FeedItem{
			Type:      domain.FeedGroupMatch,
			Priority:  3,
			Timestamp: rec.Group.CreatedAt,
			GroupMatch: &domain.GroupMatchItem{
				Group:      rec.Group,
				Percentage: rec.Percentage,
				Reason:     rec.Reason,
			},
		})
	}
	return items, nil
}

func (s *FeedService) registeredSessionItems(ctx context.Context, userID string, now time.Time) ([]domain.FeedItem, error) {
	sessions, err := s.sessions.ListRegisteredUpcoming(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("load registered sessions: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, domain.FeedItem{
			Type:              domain.FeedRegisteredSession,
			Priority:          2,
			Timestamp:         session.StartsAt,
			RegisteredSession: &domain.SessionFeedItem{Session: session},
		})
	}
	return items, nil
}

// recommendedSessionItems scores upcoming sessions by interest-topic overlap
// with the session tags. Sessions the user created or already registered for
// are excluded; sessions in an enrolled course score at least the floor.
func (s *FeedService) recommendedSessionItems(ctx context.Context, userID string, now time.Time) ([]domain.FeedItem, error) {
	sessions, err := s.sessions.ListScheduledWithin(ctx, now, now.Add(sessionLookahead))
	if err != nil {
		return nil, fmt.Errorf("load scheduled sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	registered, err := s.sessions.RegisteredSessionIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	userTopics, err := s.topics.ListUserTopics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	courseIDs, err := s.groups.EnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	enrolled := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		enrolled[id] = true
	}

	items := make([]domain.FeedItem, 0, len(sessions))
	for _, session := range sessions {
		if session.CreatorID == userID || registered[session.ID] || session.IsFull() {
			continue
		}
		score := topicOverlapScore(userTopics, session.Tags)
		if enrolled[session.CourseID] && score < enrolledScoreFloor {
			score = enrolledScoreFloor
		}
		if score <= 0 {
			continue
		}
		items = append(items, domain.FeedItem{
			Type:      domain.FeedRecommendedSession,
			Priority:  3,
			Timestamp: session.StartsAt,
			RecommendedSession: &domain.RecommendedSessionItem{
				Session: session,
				Score:   score,
			},
		})
	}

	// Best matches first, so the category cap trims the weakest ones. Ties
	// keep the sooner session ahead.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].RecommendedSession, items[j].RecommendedSession
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Session.StartsAt.Before(b.Session.StartsAt)
	})
	return items, nil
}

// topicOverlapScore counts user topics matched by a session tag, exact or
// substring either way, case-insensitive, normalized to 0..100 over the
// user's topic count.
func topicOverlapScore(userTopics, sessionTags []string) int {
	if len(userTopics) == 0 || len(sessionTags) == 0 {
		return 0
	}
	matched := 0
	for _, topic := range userTopics {
		t := strings.ToLower(strings.TrimSpace(topic))
		if t == "" {
			continue
		}
		for _, tag := range sessionTags {
			g := strings.ToLower(strings.TrimSpace(tag))
			if g == "" {
				continue
			}
			if g == t || strings.Contains(g, t) || strings.Contains(t, g) {
				matched++
				break
			}
		}
	}
	return int(math.Round(float64(matched) / float64(len(userTopics)) * 100))
}

func quizReminder(profile domain.CharacteristicProfile, now time.Time) (domain.FeedItem, bool) {
	if profile.QuizStatus == domain.QuizCompleted {
		return domain.FeedItem{}, false
	}

	reminder := domain.QuizReminderItem{Status: profile.QuizStatus}
	switch profile.QuizStatus {
	case domain.QuizInProgress:
		reminder.CompletionPercent = int(math.Round(profile.ReliabilityPercentage() * 100))
		reminder.Message = fmt.Sprintf("Your quiz is %d%% complete - finish it to sharpen your matches", reminder.CompletionPercent)
	case domain.QuizSkipped:
		reminder.Message = "You skipped the quiz - take it any time to unlock better group matches"
	default:
		reminder.Message = "Take the quiz to discover your team role and find matching study groups"
	}

	return domain.FeedItem{
		Type:         domain.FeedQuizReminder,
		Priority:     1,
		Timestamp:    now,
		QuizReminder: &reminder,
	}, true
}

func capItems(items []domain.FeedItem) []domain.FeedItem {
	if len(items) > feedCategoryCap {
		return items[:feedCategoryCap]
	}
	return items
}

// interleave takes one item from each non-empty category first, so the top
// of the feed spans content types, then round-robins through the remainder.
func interleave(categories [][]domain.FeedItem) []domain.FeedItem {
	total := 0
	for _, category := range categories {
		total += len(category)
	}
	feed := make([]domain.FeedItem, 0, total)

	cursors := make([]int, len(categories))
	for len(feed) < total {
		for i, category := range categories {
			if cursors[i] < len(category) {
				feed = append(feed, category[cursors[i]])
				cursors[i]++
			}
		}
	}
	return feed
}
