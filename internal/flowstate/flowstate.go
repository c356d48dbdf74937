// Package flowstate is the client-side companion to the auth flows: it
// tracks which multi-step flow is active and which screen within it,
// mirrored into short-lived storage so a reload resumes mid-flow
// instead of resetting to the start.
//
// Nothing here is authoritative. The server decides whether a stage or
// full credential is actually valid; this machine only drives which
// screen renders.
package flowstate

import (
	"fmt"
	"sync"
)

type Flow string

const (
	FlowLogin  Flow = "login"
	FlowForgot Flow = "forgot"
)

type Stage string

const (
	StageLogin     Stage = "login"
	StageVerifyOTP Stage = "verify-otp"

	StageForgotPassword    Stage = "forgot-password"
	StageForgotPasswordOTP Stage = "forgot-password-otp"
	StageNewPassword       Stage = "new-password"
)

var flowStages = map[Flow][]Stage{
	FlowLogin:  {StageLogin, StageVerifyOTP},
	FlowForgot: {StageForgotPassword, StageForgotPasswordOTP, StageNewPassword},
}

func initialStage(f Flow) Stage {
	return flowStages[f][0]
}

func stageBelongsTo(f Flow, s Stage) bool {
	for _, st := range flowStages[f] {
		if st == s {
			return true
		}
	}
	return false
}

// State is one flow's progress.
type State struct {
	Stage Stage
	Email string
}

// Navigator performs the client-side route transition for a stage's
// screen.
type Navigator interface {
	NavigateTo(flow Flow, stage Stage)
}

// Machine holds both flows independently: switching the active flow
// never loses the other flow's progress. Every mutation mirrors into
// storage synchronously, keyed per flow, so the two flows also persist
// independently.
type Machine struct {
	mu      sync.Mutex
	active  Flow
	states  map[Flow]State
	storage Storage
	nav     Navigator
}

func stageKey(f Flow) string { return "stage_" + string(f) }
func emailKey(f Flow) string { return "email_" + string(f) }

// New builds a machine and restores any in-progress flow from storage,
// so a reload lands on the same screen.
func New(storage Storage, nav Navigator) *Machine {
	m := &Machine{
		active:  FlowLogin,
		states:  make(map[Flow]State),
		storage: storage,
		nav:     nav,
	}
	for f := range flowStages {
		st := State{Stage: initialStage(f)}
		if v, ok := storage.Get(stageKey(f)); ok && stageBelongsTo(f, Stage(v)) {
			st.Stage = Stage(v)
		}
		if v, ok := storage.Get(emailKey(f)); ok {
			st.Email = v
		}
		m.states[f] = st
	}
	return m
}

func (m *Machine) SetFlow(f Flow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = f
}

func (m *Machine) ActiveFlow() Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetStage advances the active flow. Stages from the other flow are
// rejected rather than silently cross-wiring the two screens.
func (m *Machine) SetStage(s Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !stageBelongsTo(m.active, s) {
		return fmt.Errorf("stage %q does not belong to flow %q", s, m.active)
	}
	st := m.states[m.active]
	st.Stage = s
	m.states[m.active] = st
	m.storage.Set(stageKey(m.active), string(s))
	return nil
}

// SetEmail records the subject's identifying field on the active flow.
func (m *Machine) SetEmail(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.states[m.active]
	st.Email = v
	m.states[m.active] = st
	m.storage.Set(emailKey(m.active), v)
}

// FlowState reads either flow without touching the active selection.
func (m *Machine) FlowState(f Flow) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[f]
}

// Navigate transitions to a stage's screen. The zero stage means "the
// active flow's current stage".
func (m *Machine) Navigate(s Stage) error {
	m.mu.Lock()
	if s == "" {
		s = m.states[m.active].Stage
	} else if !stageBelongsTo(m.active, s) {
		m.mu.Unlock()
		return fmt.Errorf("stage %q does not belong to flow %q", s, m.active)
	}
	flow := m.active
	nav := m.nav
	m.mu.Unlock()

	if nav != nil {
		nav.NavigateTo(flow, s)
	}
	return nil
}

// Complete clears a finished flow. Leaving stale stage state behind
// would make a later reload resume a flow that already ended.
func (m *Machine) Complete(f Flow) {
	m.reset(f)
}

// Abandon clears a flow the user backed out of, e.g. "back to login"
// from the forgot-password screens.
func (m *Machine) Abandon(f Flow) {
	m.reset(f)
}

func (m *Machine) reset(f Flow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[f] = State{Stage: initialStage(f)}
	m.storage.Delete(stageKey(f))
	m.storage.Delete(emailKey(f))
}
