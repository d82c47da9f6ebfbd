package onboarding

import "jobpilot/internal/store"

// Event is a flow input: either a user action from a step view or the
// outcome of a persistence effect.
type Event interface {
	isEvent()
}

// SubmitPersonalInfo is the step-one submission.
type SubmitPersonalInfo struct {
	Info PersonalInfo
}

// Advance is the step-two "next" signal. The upload itself is a side
// operation handled by the resume endpoint; advancing is unconditional.
type Advance struct{}

// SubmitSkills is the step-three submission of the full skill set.
type SubmitSkills struct {
	Selections []store.SkillSelection
}

// Complete is the terminal action on step four.
type Complete struct{}

// Back moves to the previous step. It never persists and never discards
// already-accumulated fragments.
type Back struct{}

// PersistSucceeded reports that the pending persistence call succeeded.
type PersistSucceeded struct{}

// PersistFailed reports that the pending persistence call failed; Message is
// surfaced verbatim in the state's error slot.
type PersistFailed struct {
	Message string
}

func (SubmitPersonalInfo) isEvent() {}
func (Advance) isEvent()            {}
func (SubmitSkills) isEvent()       {}
func (Complete) isEvent()           {}
func (Back) isEvent()               {}
func (PersistSucceeded) isEvent()   {}
func (PersistFailed) isEvent()      {}

// EffectKind names the persistence call a transition requires.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectSavePersonalInfo
	EffectSaveSkills
	EffectCompleteProfile
)

// Effect is the I/O the runner must perform before the transition resolves.
type Effect struct {
	Kind       EffectKind
	Info       PersonalInfo
	Selections []store.SkillSelection
}

var noEffect = Effect{Kind: EffectNone}
