// Package fsm implements a guarded finite-state machine. States are
// registered by name and carry four ordered hook lists: "to" hooks may veto
// a state becoming active, "from" hooks may veto leaving it, and "set" /
// "unset" hooks run for their side effects on entry and exit. Hooks vote;
// anything other than an explicit Deny is permissive, and every registered
// hook always runs because hooks are allowed to carry side effects.
package fsm

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Kind identifies which of a state's four hook lists a hook belongs to.
type Kind int

const (
	To Kind = iota
	From
	Set
	Unset
)

func (k Kind) String() string {
	switch k {
	case To:
		return "to"
	case From:
		return "from"
	case Set:
		return "set"
	case Unset:
		return "unset"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Vote is a hook's verdict on a transition. Abstain is the zero value so a
// hook that only exists for side effects can return it and never influence
// the outcome; only an explicit Deny vetoes.
type Vote int

const (
	Abstain Vote = iota
	Allow
	Deny
)

// Hook is a guard or side-effect callable attached to a state. args carries
// the transition's counterpart state: the target name for From and Unset
// hooks, the previous state name for Set hooks, nothing for To hooks.
type Hook func(m *Machine, state string, kind Kind, args ...string) Vote

// NoticeKind classifies machine notifications.
type NoticeKind int

const (
	NoticeStateAdded NoticeKind = iota
	NoticeUnknownTarget
	NoticeGuard
	NoticeLeaving
	NoticeEntering
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeStateAdded:
		return "state_added"
	case NoticeUnknownTarget:
		return "unknown_target"
	case NoticeGuard:
		return "guard"
	case NoticeLeaving:
		return "leaving"
	case NoticeEntering:
		return "entering"
	}
	return fmt.Sprintf("notice(%d)", int(k))
}

// Notice is a machine notification. State is the subject state; Other is
// the counterpart (transition target for guard/leaving notices, previous
// state for entering notices). Transform and Allowed are set on guard
// notices only.
type Notice struct {
	Kind      NoticeKind
	State     string
	Other     string
	Transform Kind
	Allowed   bool
}

// Observer receives machine notifications. Observers run synchronously
// inside the transition, in step with hook execution order.
type Observer func(Notice)

type state struct {
	name  string
	hooks [4][]Hook
}

// Machine is a guarded state machine. It is not safe for concurrent use;
// callers serialize transitions.
type Machine struct {
	states   map[string]*state
	order    []string
	current  string
	previous string
	logger   *log.Logger
	observer Observer
}

// New creates an empty machine. A nil logger discards output.
func New(logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Machine{
		states: make(map[string]*state),
		logger: logger.WithPrefix("fsm"),
	}
}

// Observe installs the notification observer. A nil observer silences
// notifications.
func (m *Machine) Observe(fn Observer) *Machine {
	m.observer = fn
	return m
}

// AddState registers a new named state with empty hook lists. Registering
// the same name twice is a programmer error and panics.
func (m *Machine) AddState(name string) *Machine {
	if _, ok := m.states[name]; ok {
		panic(fmt.Sprintf("fsm: state %q registered twice", name))
	}
	m.states[name] = &state{name: name}
	m.order = append(m.order, name)
	m.logger.Debug("state registered", "state", name)
	m.notify(Notice{Kind: NoticeStateAdded, State: name})
	return m
}

// OnTo appends a hook to name's "to" list, builder-style.
func (m *Machine) OnTo(name string, h Hook) *Machine { return m.attach(name, To, h) }

// OnFrom appends a hook to name's "from" list, builder-style.
func (m *Machine) OnFrom(name string, h Hook) *Machine { return m.attach(name, From, h) }

// OnSet appends a hook to name's "set" list, builder-style.
func (m *Machine) OnSet(name string, h Hook) *Machine { return m.attach(name, Set, h) }

// OnUnset appends a hook to name's "unset" list, builder-style.
func (m *Machine) OnUnset(name string, h Hook) *Machine { return m.attach(name, Unset, h) }

func (m *Machine) attach(name string, kind Kind, h Hook) *Machine {
	st, ok := m.states[name]
	if !ok {
		panic(fmt.Sprintf("fsm: hook attached to unregistered state %q", name))
	}
	st.hooks[kind] = append(st.hooks[kind], h)
	return m
}

// Current returns the active state name, or "" before the first transition.
func (m *Machine) Current() string { return m.current }

// Previous returns the state that was active before the last transition.
func (m *Machine) Previous() string { return m.previous }

// Has reports whether name is a registered state.
func (m *Machine) Has(name string) bool {
	_, ok := m.states[name]
	return ok
}

// StateCount returns the number of registered states.
func (m *Machine) StateCount() int { return len(m.order) }

// StateNames returns the registered state names in registration order.
func (m *Machine) StateNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Trigger invokes every hook registered for (name, kind) in registration
// order and collects their votes. Unknown states yield nil. Hooks are never
// short-circuited: a Deny early in the list does not stop later hooks from
// running, since hooks may be relied on for side effects.
func (m *Machine) Trigger(name string, kind Kind, args ...string) []Vote {
	st, ok := m.states[name]
	if !ok {
		return nil
	}
	hooks := st.hooks[kind]
	if len(hooks) == 0 {
		return nil
	}
	votes := make([]Vote, 0, len(hooks))
	for _, h := range hooks {
		votes = append(votes, h(m, name, kind, args...))
	}
	return votes
}

// Transition attempts an unforced transition to name.
func (m *Machine) Transition(name string) bool {
	return m.SetState(name, false, false)
}

// SetState drives a transition to name and reports whether it happened.
//
// forceFrom skips the current state's "from" hooks and ignores the target's
// "to" verdict (the "to" hooks still run for their side effects). forceTo is
// accepted but not consulted today; forcing the from side already bypasses
// both vetoes.
func (m *Machine) SetState(name string, forceFrom, forceTo bool) bool {
	_ = forceTo

	if _, ok := m.states[name]; !ok {
		m.logger.Warn("transition to unknown state", "target", name, "current", m.current)
		m.notify(Notice{Kind: NoticeUnknownTarget, State: m.current, Other: name})
		return false
	}

	if m.current != "" && !forceFrom {
		allowed := combine(m.Trigger(m.current, From, name))
		m.notify(Notice{Kind: NoticeGuard, State: m.current, Other: name, Transform: From, Allowed: allowed})
		if !allowed {
			m.logger.Debug("transition vetoed by from guard", "current", m.current, "target", name)
			return false
		}
	}

	allowed := combine(m.Trigger(name, To))
	m.notify(Notice{Kind: NoticeGuard, State: name, Other: m.current, Transform: To, Allowed: allowed})
	if !forceFrom && !allowed {
		m.logger.Debug("transition vetoed by to guard", "current", m.current, "target", name)
		return false
	}

	if m.current != "" {
		m.Trigger(m.current, Unset, name)
		m.notify(Notice{Kind: NoticeLeaving, State: m.current, Other: name})
	}

	m.previous = m.current
	m.current = name
	m.logger.Debug("state changed", "from", m.previous, "to", m.current)

	m.Trigger(name, Set, m.previous)
	m.notify(Notice{Kind: NoticeEntering, State: name, Other: m.previous})

	return true
}

func (m *Machine) notify(n Notice) {
	if m.observer != nil {
		m.observer(n)
	}
}

// combine AND-combines votes: true unless any hook explicitly denied.
// Abstentions never count against a transition.
func combine(votes []Vote) bool {
	for _, v := range votes {
		if v == Deny {
			return false
		}
	}
	return true
}
