package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
	"jobpilot/internal/store"
)

// Gateway is the slice of the persistence gateway the flow drives.
// *store.Store satisfies it.
type Gateway interface {
	UpdateProfileInfo(ctx context.Context, id session.Identity, info store.ProfileInfo) (*database.Profile, error)
	ReplaceSkillSelections(ctx context.Context, id session.Identity, selections []store.SkillSelection) error
	CompleteOnboarding(ctx context.Context, id session.Identity) error
}

// StateStore persists transient flow state and serializes concurrent Apply
// calls per identity.
type StateStore interface {
	Load(ctx context.Context, id session.Identity) (State, error)
	Save(ctx context.Context, id session.Identity, state State) error
	Clear(ctx context.Context, id session.Identity) error
	TryLock(ctx context.Context, id session.Identity) (bool, error)
	Unlock(ctx context.Context, id session.Identity) error
}

// applyLockTTL bounds how long a crashed holder can block a user's flow.
const applyLockTTL = 30 * time.Second

// StateRepo stores flow state in Redis, keyed per identity, with a TTL so an
// abandoned flow evaporates on its own.
type StateRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStateRepo constructs the repo.
func NewStateRepo(client redis.UniversalClient, ttl time.Duration) *StateRepo {
	return &StateRepo{client: client, ttl: ttl}
}

func stateKey(id session.Identity) string {
	return fmt.Sprintf("onboarding:state:%d", id.UserID)
}

func lockKey(id session.Identity) string {
	return fmt.Sprintf("onboarding:lock:%d", id.UserID)
}

// Load fetches the caller's flow state, or the initial state if none exists.
func (r *StateRepo) Load(ctx context.Context, id session.Identity) (State, error) {
	raw, err := r.client.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load onboarding state: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		// Corrupt transient state is not worth failing the flow over.
		return NewState(), nil
	}
	return state, nil
}

// Save writes the flow state back with the configured TTL.
func (r *StateRepo) Save(ctx context.Context, id session.Identity, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal onboarding state: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save onboarding state: %w", err)
	}
	return nil
}

// Clear discards the caller's flow state.
func (r *StateRepo) Clear(ctx context.Context, id session.Identity) error {
	if err := r.client.Del(ctx, stateKey(id)).Err(); err != nil {
		return fmt.Errorf("clear onboarding state: %w", err)
	}
	return nil
}

// TryLock claims the caller's per-flow apply lock via SET NX.
func (r *StateRepo) TryLock(ctx context.Context, id session.Identity) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(id), "1", applyLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire onboarding lock: %w", err)
	}
	return ok, nil
}

// Unlock releases the apply lock.
func (r *StateRepo) Unlock(ctx context.Context, id session.Identity) error {
	if err := r.client.Del(ctx, lockKey(id)).Err(); err != nil {
		return fmt.Errorf("release onboarding lock: %w", err)
	}
	return nil
}

// Flow drives the reducer against stored state and executes its effects.
type Flow struct {
	states  StateStore
	gateway Gateway
	logger  *slog.Logger
}

// NewFlow constructs the runner.
func NewFlow(states StateStore, gateway Gateway, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{states: states, gateway: gateway, logger: logger}
}

// Current returns the caller's flow state without applying an event.
func (f *Flow) Current(ctx context.Context, id session.Identity) (State, error) {
	if !id.Resolved() {
		return State{}, session.ErrUnauthenticated
	}
	return f.states.Load(ctx, id)
}

// Apply feeds one event through the reducer. A per-identity lock serializes
// concurrent calls; when the transition requires a persistence call, the
// pending state is saved first, the call runs, and its result event is
// reduced and saved in turn. Completion destroys the transient state.
func (f *Flow) Apply(ctx context.Context, id session.Identity, event Event) (State, error) {
	if !id.Resolved() {
		return State{}, session.ErrUnauthenticated
	}

	// One Apply per identity at a time. A concurrent caller behaves like any
	// trigger during a pending transition: it observes, it does not act.
	locked, err := f.states.TryLock(ctx, id)
	if err != nil {
		return State{}, err
	}
	if !locked {
		return f.states.Load(ctx, id)
	}
	defer func() {
		if err := f.states.Unlock(ctx, id); err != nil {
			f.logger.Warn("release onboarding lock failed",
				slog.Uint64("user_id", uint64(id.UserID)),
				slog.Any("error", err),
			)
		}
	}()

	state, err := f.states.Load(ctx, id)
	if err != nil {
		return State{}, err
	}

	next, effect := Reduce(state, event)
	if effect.Kind == EffectNone {
		if err := f.states.Save(ctx, id, next); err != nil {
			return State{}, err
		}
		return next, nil
	}

	if err := f.states.Save(ctx, id, next); err != nil {
		return State{}, err
	}

	result := f.runEffect(ctx, id, effect)
	final, _ := Reduce(next, result)

	if final.Completed {
		if err := f.states.Clear(ctx, id); err != nil {
			f.logger.Warn("clear onboarding state failed",
				slog.Uint64("user_id", uint64(id.UserID)),
				slog.Any("error", err),
			)
		}
		return final, nil
	}

	if err := f.states.Save(ctx, id, final); err != nil {
		return State{}, err
	}
	return final, nil
}

func (f *Flow) runEffect(ctx context.Context, id session.Identity, effect Effect) Event {
	var err error
	switch effect.Kind {
	case EffectSavePersonalInfo:
		_, err = f.gateway.UpdateProfileInfo(ctx, id, store.ProfileInfo(effect.Info))
	case EffectSaveSkills:
		err = f.gateway.ReplaceSkillSelections(ctx, id, effect.Selections)
	case EffectCompleteProfile:
		err = f.gateway.CompleteOnboarding(ctx, id)
	default:
		return PersistSucceeded{}
	}

	if err != nil {
		f.logger.Info("onboarding persistence failed",
			slog.Uint64("user_id", uint64(id.UserID)),
			slog.Any("error", err),
		)
		return PersistFailed{Message: err.Error()}
	}
	return PersistSucceeded{}
}
