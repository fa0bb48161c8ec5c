package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/messaging"
	"study-match/internal/repository"
)

var (
	ErrGroupInvalidInput = errors.New("group invalid input")
	ErrGroupFull         = errors.New("group is full")
	ErrGroupNotJoinable  = errors.New("group not joinable")
	ErrNotAMember        = errors.New("not a member")
)

// GroupService owns the membership mutations and raises the domain events
// the aggregate recomputation listens on.
type GroupService struct {
	groups repository.GroupRepository
	bus    messaging.Bus
	logger *zap.Logger
}

func NewGroupService(groups repository.GroupRepository, bus messaging.Bus, logger *zap.Logger) *GroupService {
	return &GroupService{groups: groups, bus: bus, logger: logger}
}

type CreateGroupInput struct {
	CourseID    string                 `json:"course_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Visibility  domain.GroupVisibility `json:"visibility"`
	Capacity    int                    `json:"capacity"`
}

// CreateGroup stores a new active group with the creator as first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (domain.StudyGroup, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.CourseID = strings.TrimSpace(input.CourseID)
	if input.Name == "" {
		return domain.StudyGroup{}, fmt.Errorf("name required: %w", ErrGroupInvalidInput)
	}
	if input.CourseID == "" {
		return domain.StudyGroup{}, fmt.Errorf("course required: %w", ErrGroupInvalidInput)
	}
	if input.Capacity < 0 {
		return domain.StudyGroup{}, fmt.Errorf("capacity must not be negative: %w", ErrGroupInvalidInput)
	}
	if input.Visibility == "" {
		input.Visibility = domain.GroupPublic
	}
	if input.Visibility != domain.GroupPublic && input.Visibility != domain.GroupPrivate {
		return domain.StudyGroup{}, fmt.Errorf("unknown visibility %q: %w", input.Visibility, ErrGroupInvalidInput)
	}

	now := time.Now().UTC()
	group := domain.StudyGroup{
		ID:          uuid.NewString(),
		CourseID:    input.CourseID,
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Visibility:  input.Visibility,
		Status:      domain.GroupActive,
		Capacity:    input.Capacity,
		MemberCount: 1,
		CreatorID:   creatorID,
		CreatedAt:   now,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return domain.StudyGroup{}, fmt.Errorf("create group: %w", err)
	}

	s.logger.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("course_id", group.CourseID),
		zap.String("creator_id", creatorID),
	)
	s.bus.Publish(domain.GroupCreatedEvent{GroupID: group.ID, CreatorID: creatorID, At: now})
	return group, nil
}

// JoinGroup adds the user to an active group with open capacity. Joining a
// group the user already belongs to is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID string) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", groupID, ErrGroupNotFound)
	}
	if err != nil {
		return fmt.Errorf("load group %s: %w", groupID, err)
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if member {
		return nil
	}
	if group.Status != domain.GroupActive {
		return fmt.Errorf("group %s is %s: %w", groupID, group.Status, ErrGroupNotJoinable)
	}
	if !group.HasOpenCapacity() {
		return fmt.Errorf("group %s: %w", groupID, ErrGroupFull)
	}

	if err := s.groups.AddMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	s.logger.Info("member joined",
		zap.String("group_id", groupID),
		zap.String("user_id", userID),
	)
	s.bus.Publish(domain.MemberJoinedEvent{GroupID: groupID, UserID: userID, At: time.Now().UTC()})
	return nil
}

// LeaveGroup removes the user's membership.
func (s *GroupService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return fmt.Errorf("group %s: %w", groupID, ErrNotAMember)
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	s.logger.Info("member left",
		zap.String("group_id", groupID),
		zap.String("user_id", userID),
	)
	s.bus.Publish(domain.MemberLeftEvent{GroupID: groupID, UserID: userID, At: time.Now().UTC()})
	return nil
}
