package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/repository"
)

// ErrGroupNotFound surfaces a direct lookup of an unknown group.
var ErrGroupNotFound = errors.New("group not found")

const maxRankedMatches = 10

// Score reasons, keyed by similarity bands.
const (
	reasonNewGroup      = "new group, be a founding member"
	reasonPerfectFit    = "perfect fit, you complete this team"
	reasonExcellent     = "excellent match, fills key gaps"
	reasonGood          = "good match, complements strengths"
	reasonModerate      = "moderate match, some overlap"
	reasonDifferent     = "different strengths, group already covers your areas"
	reasonAlreadyMember = "you are a member"
	reasonNoProfile     = "complete your profile quiz"
)

// GroupRecommendation is one scored candidate group.
type GroupRecommendation struct {
	Group      domain.StudyGroup `json:"group"`
	Percentage int               `json:"percentage"`
	Reason     string            `json:"reason"`
}

// MatchFilters are the optional browse-mode narrowing conditions, applied
// after hard filtering.
type MatchFilters struct {
	CourseID     string
	Visibility   domain.GroupVisibility
	Availability AvailabilityFilter
}

// AvailabilityFilter narrows by open seats.
type AvailabilityFilter string

const (
	AvailabilityAny  AvailabilityFilter = ""
	AvailabilityOpen AvailabilityFilter = "OPEN"
	AvailabilityFull AvailabilityFilter = "FULL"
)

// MatchingService scores student-to-group compatibility with a
// complementary-vector cosine similarity: the student is matched against
// what the group lacks (1 - average per role), not against what it already
// has, so recommendations fill gaps instead of amplifying imbalance.
type MatchingService struct {
	groups       repository.GroupRepository
	profiles     repository.ProfileRepository
	groupProfile *GroupProfileService
	logger       *zap.Logger
}

func NewMatchingService(
	groups repository.GroupRepository,
	profiles repository.ProfileRepository,
	groupProfile *GroupProfileService,
	logger *zap.Logger,
) *MatchingService {
	return &MatchingService{
		groups:       groups,
		profiles:     profiles,
		groupProfile: groupProfile,
		logger:       logger,
	}
}

// RankGroupsForStudent returns the best candidate groups first, capped at
// ten. A student without a profile or without enrolled courses gets an
// empty list; both are valid "nothing to recommend yet" outcomes.
func (s *MatchingService) RankGroupsForStudent(ctx context.Context, userID string) ([]GroupRecommendation, error) {
	candidates, profile, err := s.eligibleCandidates(ctx, userID)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}

	recommendations := make([]GroupRecommendation, 0, len(candidates))
	for _, group := range candidates {
		pct, reason, err := s.scoreAgainstAggregate(ctx, group.ID, profile.Roles)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, GroupRecommendation{
			Group:      group,
			Percentage: pct,
			Reason:     reason,
		})
	}

	sortRecommendations(recommendations)
	if len(recommendations) > maxRankedMatches {
		recommendations = recommendations[:maxRankedMatches]
	}
	return recommendations, nil
}

// ListAllMatches applies the same hard filters as ranking, then the
// optional soft filters, and returns the full scored set without the
// top-ten cap for exploration UIs.
func (s *MatchingService) ListAllMatches(ctx context.Context, userID string, filters MatchFilters) ([]GroupRecommendation, error) {
	candidates, profile, err := s.eligibleCandidates(ctx, userID)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}

	recommendations := make([]GroupRecommendation, 0, len(candidates))
	for _, group := range candidates {
		if !matchesFilters(group, filters) {
			continue
		}
		pct, reason, err := s.scoreAgainstAggregate(ctx, group.ID, profile.Roles)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, GroupRecommendation{
			Group:      group,
			Percentage: pct,
			Reason:     reason,
		})
	}

	sortRecommendations(recommendations)
	return recommendations, nil
}

// ScoreSpecificGroup scores one group for a detail view. Membership and a
// missing profile get distinct scores and reasons instead of the generic
// formula.
func (s *MatchingService) ScoreSpecificGroup(ctx context.Context, userID, groupID string) (GroupRecommendation, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return GroupRecommendation{}, fmt.Errorf("%s: %w", groupID, ErrGroupNotFound)
	}
	if err != nil {
		return GroupRecommendation{}, fmt.Errorf("load group %s: %w", groupID, err)
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return GroupRecommendation{}, fmt.Errorf("check membership: %w", err)
	}
	if member {
		return GroupRecommendation{Group: group, Percentage: 100, Reason: reasonAlreadyMember}, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return GroupRecommendation{Group: group, Percentage: 50, Reason: reasonNoProfile}, nil
	}
	if err != nil {
		return GroupRecommendation{}, fmt.Errorf("load profile: %w", err)
	}

	pct, reason, err := s.scoreAgainstAggregate(ctx, groupID, profile.Roles)
	if err != nil {
		return GroupRecommendation{}, err
	}
	return GroupRecommendation{Group: group, Percentage: pct, Reason: reason}, nil
}

// eligibleCandidates applies the hard filters: active groups in the
// student's enrolled courses that the student is not already a member of.
func (s *MatchingService) eligibleCandidates(ctx context.Context, userID string) ([]domain.StudyGroup, domain.CharacteristicProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.CharacteristicProfile{}, nil
	}
	if err != nil {
		return nil, domain.CharacteristicProfile{}, fmt.Errorf("load profile: %w", err)
	}

	courseIDs, err := s.groups.EnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, domain.CharacteristicProfile{}, fmt.Errorf("load enrollments: %w", err)
	}
	if len(courseIDs) == 0 {
		return nil, domain.CharacteristicProfile{}, nil
	}

	groups, err := s.groups.ListActiveByCourses(ctx, courseIDs)
	if err != nil {
		return nil, domain.CharacteristicProfile{}, fmt.Errorf("load candidate groups: %w", err)
	}

	memberOf, err := s.groups.ListGroupIDsOfUser(ctx, userID)
	if err != nil {
		return nil, domain.CharacteristicProfile{}, fmt.Errorf("load memberships: %w", err)
	}
	memberSet := make(map[string]bool, len(memberOf))
	for _, id := range memberOf {
		memberSet[id] = true
	}

	candidates := groups[:0]
	for _, group := range groups {
		if !memberSet[group.ID] {
			candidates = append(candidates, group)
		}
	}
	return candidates, profile, nil
}

// scoreAgainstAggregate computes the compatibility percentage for one
// group. Groups without an aggregate (or with zero recorded members) score
// a fixed 75: a new group is always worth founding.
func (s *MatchingService) scoreAgainstAggregate(ctx context.Context, groupID string, student domain.RoleVector) (int, string, error) {
	aggregate, ok, err := s.groupProfile.GetAggregate(ctx, groupID)
	if err != nil {
		return 0, "", fmt.Errorf("load aggregate %s: %w", groupID, err)
	}
	if !ok || aggregate.MemberCount == 0 {
		return 75, reasonNewGroup, nil
	}

	similarity := domain.CosineSimilarity(student, aggregate.AverageRoles.Complement())
	return int(math.Round(similarity * 100)), reasonForSimilarity(similarity), nil
}

func reasonForSimilarity(similarity float64) string {
	switch {
	case similarity >= 0.85:
		return reasonPerfectFit
	case similarity >= 0.70:
		return reasonExcellent
	case similarity >= 0.55:
		return reasonGood
	case similarity >= 0.40:
		return reasonModerate
	default:
		return reasonDifferent
	}
}

// sortRecommendations orders by percentage descending, ties broken by
// ascending group id for determinism.
func sortRecommendations(recommendations []GroupRecommendation) {
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Percentage != recommendations[j].Percentage {
			return recommendations[i].Percentage > recommendations[j].Percentage
		}
		return recommendations[i].Group.ID < recommendations[j].Group.ID
	})
}

func matchesFilters(group domain.StudyGroup, filters MatchFilters) bool {
	if filters.CourseID != "" && group.CourseID != filters.CourseID {
		return false
	}
	if filters.Visibility != "" && group.Visibility != filters.Visibility {
		return false
	}
	switch filters.Availability {
	case AvailabilityOpen:
		return group.HasOpenCapacity()
	case AvailabilityFull:
		return !group.HasOpenCapacity()
	}
	return true
}
