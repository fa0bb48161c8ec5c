package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/messaging"
	"study-match/internal/repository"
)

// GroupProfileService maintains the per-group aggregate role vector as a
// derived view: recomputed wholesale from current membership on every
// relevant event, never patched incrementally.
type GroupProfileService struct {
	groups        repository.GroupRepository
	profiles      repository.ProfileRepository
	groupProfiles repository.GroupProfileRepository
	cache         GroupProfileCache
	logger        *zap.Logger
}

func NewGroupProfileService(
	groups repository.GroupRepository,
	profiles repository.ProfileRepository,
	groupProfiles repository.GroupProfileRepository,
	cache GroupProfileCache,
	logger *zap.Logger,
) *GroupProfileService {
	return &GroupProfileService{
		groups:        groups,
		profiles:      profiles,
		groupProfiles: groupProfiles,
		cache:         cache,
		logger:        logger,
	}
}

// RegisterHandlers subscribes the aggregate recomputation to the domain
// events. Handlers run asynchronously on the bus; an error here is logged
// by the bus and never reaches the operation that raised the event.
func (s *GroupProfileService) RegisterHandlers(bus messaging.Bus) {
	bus.Subscribe(domain.EventGroupCreated, s.handle(func(ctx context.Context, event domain.Event) error {
		e, ok := event.(domain.GroupCreatedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}
		return s.CreateInitialProfile(ctx, e.GroupID, e.CreatorID)
	}))
	bus.Subscribe(domain.EventMemberJoined, s.handle(func(ctx context.Context, event domain.Event) error {
		e, ok := event.(domain.MemberJoinedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}
		return s.Recalculate(ctx, e.GroupID)
	}))
	bus.Subscribe(domain.EventMemberLeft, s.handle(func(ctx context.Context, event domain.Event) error {
		e, ok := event.(domain.MemberLeftEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}
		return s.Recalculate(ctx, e.GroupID)
	}))
	bus.Subscribe(domain.EventProfileUpdated, s.handle(func(ctx context.Context, event domain.Event) error {
		e, ok := event.(domain.ProfileUpdatedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}
		return s.RecalculateAllGroupsOf(ctx, e.UserID)
	}))
}

// handle bounds one recomputation with its own context, independent of the
// request that triggered the event.
func (s *GroupProfileService) handle(fn func(ctx context.Context, event domain.Event) error) messaging.Handler {
	return func(event domain.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return fn(ctx, event)
	}
}

// CreateInitialProfile seeds a new group's aggregate from the creator's
// profile, or zeros when the creator has none. A no-op when the aggregate
// already exists, guarding against duplicate event delivery.
func (s *GroupProfileService) CreateInitialProfile(ctx context.Context, groupID, creatorID string) error {
	exists, err := s.groupProfiles.Exists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("check group profile %s: %w", groupID, err)
	}
	if exists {
		return nil
	}

	aggregate := domain.GroupCharacteristicProfile{
		GroupID:       groupID,
		AverageRoles:  domain.NewRoleVector(),
		LastUpdatedAt: time.Now().UTC(),
	}

	creatorProfile, err := s.profiles.GetByUserID(ctx, creatorID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// creator without a profile seeds an empty aggregate
	case err != nil:
		return fmt.Errorf("load creator profile %s: %w", creatorID, err)
	default:
		aggregate.AverageRoles = creatorProfile.Roles.Clone()
		aggregate.MemberCount = 1
	}

	if err := s.groupProfiles.Upsert(ctx, aggregate); err != nil {
		return fmt.Errorf("store group profile %s: %w", groupID, err)
	}
	s.cache.Delete(ctx, groupID)

	s.logger.Info("group profile created",
		zap.String("group_id", groupID),
		zap.Int("member_count", aggregate.MemberCount),
	)
	return nil
}

// Recalculate rebuilds the aggregate from the group's current member set
// and replaces the stored row wholesale. Empty groups store a zeroed
// profile; members without a characteristic profile are excluded from the
// average rather than counted as zeros.
func (s *GroupProfileService) Recalculate(ctx context.Context, groupID string) error {
	memberIDs, err := s.groups.ListMemberIDs(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list members of %s: %w", groupID, err)
	}

	vectors := make([]domain.RoleVector, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		profile, err := s.profiles.GetByUserID(ctx, memberID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load member profile %s: %w", memberID, err)
		}
		vectors = append(vectors, profile.Roles)
	}

	average, variance := aggregateVectors(vectors)
	aggregate := domain.GroupCharacteristicProfile{
		GroupID:         groupID,
		AverageRoles:    average,
		CurrentVariance: variance,
		MemberCount:     len(vectors),
		LastUpdatedAt:   time.Now().UTC(),
	}

	if err := s.groupProfiles.Upsert(ctx, aggregate); err != nil {
		return fmt.Errorf("store group profile %s: %w", groupID, err)
	}
	s.cache.Delete(ctx, groupID)

	s.logger.Info("group profile recalculated",
		zap.String("group_id", groupID),
		zap.Int("member_count", aggregate.MemberCount),
		zap.Float64("variance", aggregate.CurrentVariance),
	)
	return nil
}

// RecalculateAllGroupsOf fans a profile change out to every group the user
// belongs to.
func (s *GroupProfileService) RecalculateAllGroupsOf(ctx context.Context, userID string) error {
	groupIDs, err := s.groups.ListGroupIDsOfUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list groups of %s: %w", userID, err)
	}
	for _, groupID := range groupIDs {
		if err := s.Recalculate(ctx, groupID); err != nil {
			return err
		}
	}
	return nil
}

// GetAggregate returns the stored aggregate for a group, or ok=false when
// none exists yet.
func (s *GroupProfileService) GetAggregate(ctx context.Context, groupID string) (domain.GroupCharacteristicProfile, bool, error) {
	if profile, hit := s.cache.Get(ctx, groupID); hit {
		return profile, true, nil
	}
	profile, err := s.groupProfiles.GetByGroupID(ctx, groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GroupCharacteristicProfile{}, false, nil
	}
	if err != nil {
		return domain.GroupCharacteristicProfile{}, false, err
	}
	s.cache.Set(ctx, profile)
	return profile, true, nil
}

// aggregateVectors computes the per-role arithmetic mean and the total
// variance: population variance per role, averaged over the seven roles.
// Lower variance means a more homogeneous group.
func aggregateVectors(vectors []domain.RoleVector) (domain.RoleVector, float64) {
	average := domain.NewRoleVector()
	if len(vectors) == 0 {
		return average, 0
	}

	n := float64(len(vectors))
	for _, vec := range vectors {
		for _, role := range domain.AllRoleTypes {
			average[role] += vec[role]
		}
	}
	for _, role := range domain.AllRoleTypes {
		average[role] /= n
	}

	var totalVariance float64
	for _, role := range domain.AllRoleTypes {
		var sumSquares float64
		for _, vec := range vectors {
			dev := vec[role] - average[role]
			sumSquares += dev * dev
		}
		totalVariance += sumSquares / n
	}
	totalVariance /= float64(len(domain.AllRoleTypes))

	return average, totalVariance
}
