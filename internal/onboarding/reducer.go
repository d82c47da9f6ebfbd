package onboarding

// Reduce applies one event to the flow state and returns the next state plus
// the effect the caller must run. It is pure: no I/O, no clock, no locks.
//
// Gating rule: while Pending is set, every transition-triggering event is a
// no-op. Exactly one persistence call can be in flight per flow, and its
// result event is the only thing that clears the flag.
func Reduce(state State, event Event) (State, Effect) {
	switch ev := event.(type) {
	case SubmitPersonalInfo:
		if state.Pending || state.Step != StepPersonalInfo {
			return state, noEffect
		}
		if err := ValidatePersonalInfo(ev.Info); err != nil {
			state.Err = err.Error()
			return state, noEffect
		}
		info := ev.Info
		state.Pending = true
		state.Err = ""
		state.StagedInfo = &info
		return state, Effect{Kind: EffectSavePersonalInfo, Info: info}

	case Advance:
		if state.Pending || state.Step != StepResumeUpload {
			return state, noEffect
		}
		state.Step = StepSkills
		state.Err = ""
		return state, noEffect

	case SubmitSkills:
		if state.Pending || state.Step != StepSkills {
			return state, noEffect
		}
		if err := ValidateSkills(ev.Selections); err != nil {
			state.Err = err.Error()
			return state, noEffect
		}
		state.Pending = true
		state.Err = ""
		state.StagedSkills = ev.Selections
		return state, Effect{Kind: EffectSaveSkills, Selections: ev.Selections}

	case Complete:
		if state.Pending || state.Step != StepCompletion {
			return state, noEffect
		}
		state.Pending = true
		state.Err = ""
		return state, Effect{Kind: EffectCompleteProfile}

	case Back:
		// An in-flight operation is not cancellable; its result will be
		// applied to whatever state it finds.
		if state.Pending || state.Step <= StepPersonalInfo {
			return state, noEffect
		}
		state.Step--
		state.Err = ""
		return state, noEffect

	case PersistSucceeded:
		if !state.Pending {
			return state, noEffect
		}
		state.Pending = false
		state.Err = ""
		switch state.Step {
		case StepPersonalInfo:
			state.PersonalInfo = state.StagedInfo
			state.StagedInfo = nil
			state.Step = StepResumeUpload
		case StepSkills:
			state.Skills = state.StagedSkills
			state.StagedSkills = nil
			state.Step = StepCompletion
		case StepCompletion:
			state.Completed = true
		}
		return state, noEffect

	case PersistFailed:
		if !state.Pending {
			return state, noEffect
		}
		state.Pending = false
		state.Err = ev.Message
		state.StagedInfo = nil
		state.StagedSkills = nil
		return state, noEffect
	}

	return state, noEffect
}
