package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
	"jobpilot/internal/store"
)

type memStateStore struct {
	mu     sync.Mutex
	states map[uint]State
	locks  map[uint]bool
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: map[uint]State{}, locks: map[uint]bool{}}
}

func (m *memStateStore) Load(_ context.Context, id session.Identity) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[id.UserID]; ok {
		return s, nil
	}
	return NewState(), nil
}

func (m *memStateStore) Save(_ context.Context, id session.Identity, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id.UserID] = state
	return nil
}

func (m *memStateStore) Clear(_ context.Context, id session.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id.UserID)
	return nil
}

func (m *memStateStore) TryLock(_ context.Context, id session.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id.UserID] {
		return false, nil
	}
	m.locks[id.UserID] = true
	return true, nil
}

func (m *memStateStore) Unlock(_ context.Context, id session.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id.UserID)
	return nil
}

func (m *memStateStore) has(userID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[userID]
	return ok
}

type fakeGateway struct {
	mu        sync.Mutex
	updates   int
	replaces  int
	completes int

	err     error
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGateway) UpdateProfileInfo(_ context.Context, _ session.Identity, _ store.ProfileInfo) (*database.Profile, error) {
	g.mu.Lock()
	g.updates++
	g.mu.Unlock()
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return nil, g.err
	}
	return &database.Profile{}, nil
}

func (g *fakeGateway) ReplaceSkillSelections(_ context.Context, _ session.Identity, _ []store.SkillSelection) error {
	g.mu.Lock()
	g.replaces++
	g.mu.Unlock()
	return g.err
}

func (g *fakeGateway) CompleteOnboarding(_ context.Context, _ session.Identity) error {
	g.mu.Lock()
	g.completes++
	g.mu.Unlock()
	return g.err
}

func (g *fakeGateway) updateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updates
}

func newTestFlow(gateway Gateway) (*Flow, *memStateStore) {
	states := newMemStateStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFlow(states, gateway, logger), states
}

func TestFlowApply_FullWalk(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	flow, states := newTestFlow(gateway)
	id := session.Identity{UserID: 1}

	state, err := flow.Apply(ctx, id, SubmitPersonalInfo{Info: validInfo()})
	if err != nil {
		t.Fatalf("submit personal info: %v", err)
	}
	if state.Step != StepResumeUpload || state.Pending {
		t.Fatalf("expected step two, got %+v", state)
	}
	if gateway.updates != 1 {
		t.Fatalf("expected one profile update, got %d", gateway.updates)
	}

	if state, err = flow.Apply(ctx, id, Advance{}); err != nil || state.Step != StepSkills {
		t.Fatalf("advance: %v %+v", err, state)
	}

	state, err = flow.Apply(ctx, id, SubmitSkills{Selections: validSkills()})
	if err != nil || state.Step != StepCompletion {
		t.Fatalf("submit skills: %v %+v", err, state)
	}
	if gateway.replaces != 1 {
		t.Fatalf("expected one skills replace, got %d", gateway.replaces)
	}

	state, err = flow.Apply(ctx, id, Complete{})
	if err != nil || !state.Completed {
		t.Fatalf("complete: %v %+v", err, state)
	}
	if gateway.completes != 1 {
		t.Fatalf("expected one completion, got %d", gateway.completes)
	}
	if states.has(1) {
		t.Fatal("completion must destroy the transient state")
	}
}

func TestFlowApply_PersistFailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{err: errors.New("profile.update: connection refused")}
	flow, _ := newTestFlow(gateway)
	id := session.Identity{UserID: 1}

	state, err := flow.Apply(ctx, id, SubmitPersonalInfo{Info: validInfo()})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if state.Step != StepPersonalInfo || state.Pending {
		t.Fatalf("failed submit must stay on step one, got %+v", state)
	}
	if state.Err != "profile.update: connection refused" {
		t.Fatalf("error not surfaced verbatim: %q", state.Err)
	}
}

func TestFlowApply_RequiresIdentity(t *testing.T) {
	gateway := &fakeGateway{}
	flow, _ := newTestFlow(gateway)

	_, err := flow.Apply(context.Background(), session.Anonymous, Advance{})
	if !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	_, err = flow.Current(context.Background(), session.Anonymous)
	if !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated from Current, got %v", err)
	}
}

func TestFlowApply_ConcurrentTriggerObservesWithoutActing(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	flow, _ := newTestFlow(gateway)
	id := session.Identity{UserID: 1}

	firstDone := make(chan State, 1)
	go func() {
		state, err := flow.Apply(ctx, id, SubmitPersonalInfo{Info: validInfo()})
		if err != nil {
			t.Errorf("first apply: %v", err)
		}
		firstDone <- state
	}()

	select {
	case <-gateway.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first apply never reached the gateway")
	}

	// Second trigger arrives while the first persistence call is in flight.
	state, err := flow.Apply(ctx, id, SubmitPersonalInfo{Info: validInfo()})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !state.Pending {
		t.Fatalf("concurrent caller must observe the pending state, got %+v", state)
	}
	if gateway.updateCount() != 1 {
		t.Fatalf("concurrent trigger ran the effect: %d gateway calls", gateway.updateCount())
	}

	close(gateway.release)
	final := <-firstDone
	if final.Step != StepResumeUpload {
		t.Fatalf("first apply did not land on step two: %+v", final)
	}
	if gateway.updateCount() != 1 {
		t.Fatalf("expected exactly one gateway call, got %d", gateway.updateCount())
	}
}
