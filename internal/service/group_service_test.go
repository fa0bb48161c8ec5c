package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/messaging"
)

func newGroupServiceFixture() (*GroupService, *fakeGroupRepo, *messaging.InMemoryBus, *[]domain.Event) {
	groups := newFakeGroupRepo()
	bus := messaging.NewSyncBus(zap.NewNop())
	events := &[]domain.Event{}
	record := func(event domain.Event) error {
		*events = append(*events, event)
		return nil
	}
	bus.Subscribe(domain.EventGroupCreated, record)
	bus.Subscribe(domain.EventMemberJoined, record)
	bus.Subscribe(domain.EventMemberLeft, record)
	return NewGroupService(groups, bus, zap.NewNop()), groups, bus, events
}

func TestCreateGroup_ValidatesInput(t *testing.T) {
	svc, _, _, _ := newGroupServiceFixture()

	cases := []CreateGroupInput{
		{CourseID: "c1"},
		{Name: "algebra crew"},
		{Name: "algebra crew", CourseID: "c1", Capacity: -1},
		{Name: "algebra crew", CourseID: "c1", Visibility: "SECRET"},
	}
	for i, input := range cases {
		if _, err := svc.CreateGroup(context.Background(), "u1", input); !errors.Is(err, ErrGroupInvalidInput) {
			t.Fatalf("case %d: expected ErrGroupInvalidInput, got %v", i, err)
		}
	}
}

func TestCreateGroup_StoresAndPublishes(t *testing.T) {
	svc, groups, _, events := newGroupServiceFixture()

	group, err := svc.CreateGroup(context.Background(), "u1", CreateGroupInput{
		Name:     "algebra crew",
		CourseID: "c1",
		Capacity: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.Status != domain.GroupActive || group.Visibility != domain.GroupPublic {
		t.Fatalf("expected active public defaults, got %+v", group)
	}
	if member, _ := groups.IsMember(context.Background(), group.ID, "u1"); !member {
		t.Fatalf("creator must become first member")
	}
	if len(*events) != 1 {
		t.Fatalf("expected one event, got %d", len(*events))
	}
	created, ok := (*events)[0].(domain.GroupCreatedEvent)
	if !ok || created.GroupID != group.ID || created.CreatorID != "u1" {
		t.Fatalf("unexpected event %+v", (*events)[0])
	}
}

func TestJoinGroup_Rules(t *testing.T) {
	svc, groups, _, events := newGroupServiceFixture()
	now := time.Now().UTC()

	groups.addGroup(domain.StudyGroup{
		ID: "g-open", Status: domain.GroupActive, Capacity: 2, CreatedAt: now,
	}, "a")
	groups.addGroup(domain.StudyGroup{
		ID: "g-full", Status: domain.GroupActive, Capacity: 1, CreatedAt: now,
	}, "a")
	groups.addGroup(domain.StudyGroup{
		ID: "g-archived", Status: domain.GroupArchived, CreatedAt: now,
	}, "a")

	if err := svc.JoinGroup(context.Background(), "missing", "u1"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
	if err := svc.JoinGroup(context.Background(), "g-full", "u1"); !errors.Is(err, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}
	if err := svc.JoinGroup(context.Background(), "g-archived", "u1"); !errors.Is(err, ErrGroupNotJoinable) {
		t.Fatalf("expected ErrGroupNotJoinable, got %v", err)
	}

	if err := svc.JoinGroup(context.Background(), "g-open", "u1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(*events) != 1 {
		t.Fatalf("expected one join event, got %d", len(*events))
	}

	// joining again is a no-op and raises no event
	if err := svc.JoinGroup(context.Background(), "g-open", "u1"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(*events) != 1 {
		t.Fatalf("rejoin must not publish, got %d events", len(*events))
	}
}

func TestLeaveGroup_RequiresMembership(t *testing.T) {
	svc, groups, _, events := newGroupServiceFixture()
	groups.addGroup(domain.StudyGroup{ID: "g1", Status: domain.GroupActive}, "u1")

	if err := svc.LeaveGroup(context.Background(), "g1", "stranger"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}

	if err := svc.LeaveGroup(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if member, _ := groups.IsMember(context.Background(), "g1", "u1"); member {
		t.Fatalf("membership must be removed")
	}
	if len(*events) != 1 {
		t.Fatalf("expected one leave event, got %d", len(*events))
	}
	if _, ok := (*events)[0].(domain.MemberLeftEvent); !ok {
		t.Fatalf("unexpected event %+v", (*events)[0])
	}
}
