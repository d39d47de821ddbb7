package game

import (
	"time"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeStateRegistered    EventType = "state_registered"
	EventTypeUnknownState       EventType = "unknown_state"
	EventTypeGuardResult        EventType = "guard_result"
	EventTypeStateLeaving       EventType = "state_leaving"
	EventTypeStateEntering      EventType = "state_entering"
	EventTypeSubmissionComplete EventType = "submission_complete"
	EventTypeTsarChoice         EventType = "tsar_choice"
	EventTypeGameWon            EventType = "game_won"
	EventTypeGameKilled         EventType = "game_killed"
)

func (et EventType) String() string { return string(et) }

// Event represents any observable occurrence inside a game. Integrations
// (chat bridges, watchers) subscribe to these instead of coupling to the
// engine.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// StateRegisteredEvent is published when a state is added to the machine.
type StateRegisteredEvent struct {
	State     State
	timestamp time.Time
}

func (e StateRegisteredEvent) EventType() EventType { return EventTypeStateRegistered }
func (e StateRegisteredEvent) Timestamp() time.Time { return e.timestamp }

// UnknownStateEvent is published when a transition names an unregistered
// target. This is a diagnostic, not a fatal: caller typos must not crash
// the engine.
type UnknownStateEvent struct {
	Current   State
	Target    string
	timestamp time.Time
}

func (e UnknownStateEvent) EventType() EventType { return EventTypeUnknownState }
func (e UnknownStateEvent) Timestamp() time.Time { return e.timestamp }

// GuardResultEvent is published after each guard evaluation during a
// transition, with its verdict.
type GuardResultEvent struct {
	State     State
	Other     State
	Transform string
	Allowed   bool
	timestamp time.Time
}

func (e GuardResultEvent) EventType() EventType { return EventTypeGuardResult }
func (e GuardResultEvent) Timestamp() time.Time { return e.timestamp }

// StateLeavingEvent is published when the machine leaves a state.
type StateLeavingEvent struct {
	State     State
	Target    State
	timestamp time.Time
}

func (e StateLeavingEvent) EventType() EventType { return EventTypeStateLeaving }
func (e StateLeavingEvent) Timestamp() time.Time { return e.timestamp }

// StateEnteringEvent is published when the machine enters a state.
type StateEnteringEvent struct {
	State     State
	Previous  State
	timestamp time.Time
}

func (e StateEnteringEvent) EventType() EventType { return EventTypeStateEntering }
func (e StateEnteringEvent) Timestamp() time.Time { return e.timestamp }

// SubmissionCompleteEvent is published when a player has submitted the full
// number of cards the active black card requires.
type SubmissionCompleteEvent struct {
	PlayerID  string
	RoundID   string
	Submitted int
	timestamp time.Time
}

func (e SubmissionCompleteEvent) EventType() EventType { return EventTypeSubmissionComplete }
func (e SubmissionCompleteEvent) Timestamp() time.Time { return e.timestamp }

// TsarChoiceEvent is published when the tsar picks a round winner.
type TsarChoiceEvent struct {
	TsarID    string
	WinnerID  string
	RoundID   string
	Text      string
	Points    int
	timestamp time.Time
}

func (e TsarChoiceEvent) EventType() EventType { return EventTypeTsarChoice }
func (e TsarChoiceEvent) Timestamp() time.Time { return e.timestamp }

// GameWonEvent is published once the game reaches ENDGAME with at least one
// winner.
type GameWonEvent struct {
	WinnerIDs []string
	Points    int
	timestamp time.Time
}

func (e GameWonEvent) EventType() EventType { return EventTypeGameWon }
func (e GameWonEvent) Timestamp() time.Time { return e.timestamp }

// GameKilledEvent is published when the game is torn down.
type GameKilledEvent struct {
	GameID    string
	timestamp time.Time
}

func (e GameKilledEvent) EventType() EventType { return EventTypeGameKilled }
func (e GameKilledEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events.
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus. Publishing is synchronous
// and in subscription order, matching the engine's single-threaded model.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events.
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers.
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

// SubscriberFunc adapts a function to the EventSubscriber interface. Func
// values are not comparable, so a SubscriberFunc cannot be passed to
// Unsubscribe; use a struct subscriber when removal is needed.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(event Event) { f(event) }
