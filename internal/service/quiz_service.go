package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/messaging"
	"study-match/internal/repository"
)

var (
	// ErrQuizInvalidInput rejects a whole submission: unknown question or
	// option id, re-answering an answered question, or an empty batch.
	ErrQuizInvalidInput = errors.New("quiz invalid input")
)

// QuizService turns answered quiz questions into a normalized role vector.
type QuizService struct {
	questions repository.QuestionRepository
	config    repository.QuizConfigRepository
	answers   repository.AnswerRepository
	profiles  repository.ProfileRepository
	bus       messaging.Bus
	logger    *zap.Logger
}

func NewQuizService(
	questions repository.QuestionRepository,
	config repository.QuizConfigRepository,
	answers repository.AnswerRepository,
	profiles repository.ProfileRepository,
	bus messaging.Bus,
	logger *zap.Logger,
) *QuizService {
	return &QuizService{
		questions: questions,
		config:    config,
		answers:   answers,
		profiles:  profiles,
		bus:       bus,
		logger:    logger,
	}
}

// GetQuiz returns the admin-configured subset of active questions in
// configured order, or all active questions when no subset is configured.
func (s *QuizService) GetQuiz(ctx context.Context) ([]domain.QuizQuestion, error) {
	return s.activeQuestions(ctx)
}

// SubmitAnswers validates and persists a batch of new answers, then
// recomputes the user's role vector from the complete answer set. Each
// question can be answered at most once; a retake attempt rejects the whole
// submission.
func (s *QuizService) SubmitAnswers(ctx context.Context, userID string, picks map[string]string) (domain.CharacteristicProfile, error) {
	if len(picks) == 0 {
		return domain.CharacteristicProfile{}, fmt.Errorf("empty submission (use skip instead): %w", ErrQuizInvalidInput)
	}

	questions, err := s.activeQuestions(ctx)
	if err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("load questions: %w", err)
	}

	byQuestion := make(map[string]domain.QuizQuestion, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}

	existing, err := s.answers.ListByUser(ctx, userID)
	if err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("load answers: %w", err)
	}
	answered := make(map[string]bool, len(existing))
	for _, a := range existing {
		answered[a.QuestionID] = true
	}

	now := time.Now().UTC()
	newAnswers := make([]domain.QuizAnswer, 0, len(picks))
	for questionID, optionID := range picks {
		if answered[questionID] {
			return domain.CharacteristicProfile{}, fmt.Errorf("question %s already answered: %w", questionID, ErrQuizInvalidInput)
		}
		question, ok := byQuestion[questionID]
		if !ok {
			return domain.CharacteristicProfile{}, fmt.Errorf("unknown question %s: %w", questionID, ErrQuizInvalidInput)
		}
		if findOption(question, optionID) == nil {
			return domain.CharacteristicProfile{}, fmt.Errorf("unknown option %s for question %s: %w", optionID, questionID, ErrQuizInvalidInput)
		}
		newAnswers = append(newAnswers, domain.QuizAnswer{
			ID:         uuid.NewString(),
			UserID:     userID,
			QuestionID: questionID,
			OptionID:   optionID,
			CreatedAt:  now,
		})
	}

	if err := s.answers.InsertBatch(ctx, newAnswers); err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("persist answers: %w", err)
	}

	all := append(existing, newAnswers...)
	roles, answeredCount := scoreAnswers(questions, all)

	profile, err := s.loadOrInitProfile(ctx, userID, now)
	if err != nil {
		return domain.CharacteristicProfile{}, err
	}
	profile.Roles = roles
	profile.TotalQuestions = len(questions)
	profile.AnsweredQuestions = answeredCount
	profile.UpdatedAt = now
	if answeredCount >= len(questions) && len(questions) > 0 {
		profile.QuizStatus = domain.QuizCompleted
	} else {
		profile.QuizStatus = domain.QuizInProgress
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("persist profile: %w", err)
	}

	s.logger.Info("quiz answers scored",
		zap.String("user_id", userID),
		zap.Int("answered", profile.AnsweredQuestions),
		zap.Int("total", profile.TotalQuestions),
		zap.String("status", string(profile.QuizStatus)),
	)

	s.bus.Publish(domain.ProfileUpdatedEvent{UserID: userID, At: now})
	return profile, nil
}

// SkipQuiz marks the quiz as skipped with zero reliability. Idempotent.
func (s *QuizService) SkipQuiz(ctx context.Context, userID string) (domain.CharacteristicProfile, error) {
	now := time.Now().UTC()
	profile, err := s.loadOrInitProfile(ctx, userID, now)
	if err != nil {
		return domain.CharacteristicProfile{}, err
	}
	profile.Roles = domain.NewRoleVector()
	profile.QuizStatus = domain.QuizSkipped
	profile.TotalQuestions = 0
	profile.AnsweredQuestions = 0
	profile.UpdatedAt = now

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("persist profile: %w", err)
	}

	s.logger.Info("quiz skipped", zap.String("user_id", userID))
	s.bus.Publish(domain.ProfileUpdatedEvent{UserID: userID, At: now})
	return profile, nil
}

// ProfileSummary returns the user's profile, or a NOT_STARTED placeholder
// when none exists yet (missing profiles are an expected steady state).
func (s *QuizService) ProfileSummary(ctx context.Context, userID string) (domain.CharacteristicProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CharacteristicProfile{
			UserID:     userID,
			Roles:      domain.NewRoleVector(),
			QuizStatus: domain.QuizNotStarted,
		}, nil
	}
	return profile, err
}

func (s *QuizService) loadOrInitProfile(ctx context.Context, userID string, now time.Time) (domain.CharacteristicProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CharacteristicProfile{
			ID:        uuid.NewString(),
			UserID:    userID,
			Roles:     domain.NewRoleVector(),
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return domain.CharacteristicProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// activeQuestions applies the configured subset (ordered id list) on top of
// the active question set.
func (s *QuizService) activeQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	questions, err := s.questions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := s.config.SelectedQuestionIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return questions, nil
	}

	byID := make(map[string]domain.QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	subset := make([]domain.QuizQuestion, 0, len(selected))
	for _, id := range selected {
		if q, ok := byID[id]; ok {
			subset = append(subset, q)
		}
	}
	return subset, nil
}

// scoreAnswers recomputes the normalized role vector from the complete
// answer set. For each role: raw = sum of chosen option weights,
// normalized = raw / (max observed option weight for the role x active
// question count), clamped into [0,1]. Answers to questions outside the
// active set are ignored.
func scoreAnswers(questions []domain.QuizQuestion, answers []domain.QuizAnswer) (domain.RoleVector, int) {
	options := make(map[string]map[string]domain.QuizOption, len(questions))
	maxWeight := domain.NewRoleVector()
	for _, q := range questions {
		byOption := make(map[string]domain.QuizOption, len(q.Options))
		for _, opt := range q.Options {
			byOption[opt.ID] = opt
			for role, w := range opt.Weights {
				if w > maxWeight[role] {
					maxWeight[role] = w
				}
			}
		}
		options[q.ID] = byOption
	}

	raw := domain.NewRoleVector()
	answeredCount := 0
	for _, a := range answers {
		byOption, ok := options[a.QuestionID]
		if !ok {
			continue
		}
		opt, ok := byOption[a.OptionID]
		if !ok {
			continue
		}
		answeredCount++
		for role, w := range opt.Weights {
			raw[role] += w
		}
	}

	scores := domain.NewRoleVector()
	total := float64(len(questions))
	for _, role := range domain.AllRoleTypes {
		if maxWeight[role] == 0 || total == 0 {
			continue
		}
		scores[role] = raw[role] / (maxWeight[role] * total)
	}
	scores.Clamp()
	return scores, answeredCount
}

func findOption(question domain.QuizQuestion, optionID string) *domain.QuizOption {
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			return &question.Options[i]
		}
	}
	return nil
}
