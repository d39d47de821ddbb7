// Package game implements the party game state machine: players submit
// white cards against a black prompt card, a rotating tsar judges each
// round, and the first player to hit the configured score wins. The
// transition logic lives in a guarded FSM (internal/fsm); this package
// wires the nine game states onto it and exposes the mutating operations.
//
// A Game is single-threaded by design: every operation completes its whole
// cascade of guard evaluation, hooks and chained transitions before
// returning. Concurrent callers must serialize through one command queue
// per game (see internal/server.Service).
package game

import (
	"io"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/cardtsar/cardtsar/internal/deck"
	"github.com/cardtsar/cardtsar/internal/fsm"
	"github.com/cardtsar/cardtsar/internal/randutil"
	"github.com/cardtsar/cardtsar/internal/roundid"
)

// State names the game's machine states.
type State string

const (
	StateInit          State = "INIT"
	StateEmpty         State = "EMPTY"
	StateWaiting       State = "WAITING"
	StateDealing       State = "DEALING"
	StatePlaying       State = "PLAYING"
	StateInbetweenTurn State = "INBETWEENTURN"
	StateTsarTurn      State = "TSARTURN"
	StateEndgame       State = "ENDGAME"
	StateKilled        State = "KILLED"
)

func (s State) String() string { return string(s) }

// Game is one running party game. It owns its machine, players, card
// collection and the active black card; everything is torn down when the
// game is killed.
type Game struct {
	id       string
	machine  *fsm.Machine
	bus      EventBus
	logger   *log.Logger
	rng      *rand.Rand
	rounds   *roundid.Generator
	roundID  string
	players  []*Player
	host     *Player
	tsar     *Player
	cards    *deck.Collection
	black    *deck.BlackCard
	settings *Settings
}

// Option configures a Game at construction.
type Option func(*Game)

// WithLogger sets the game's logger.
func WithLogger(logger *log.Logger) Option {
	return func(g *Game) { g.logger = logger }
}

// WithRNG injects the random source used for tsar election and card draws,
// making whole games reproducible.
func WithRNG(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithSettings sets the game's tunables.
func WithSettings(s *Settings) Option {
	return func(g *Game) { g.settings = s }
}

// WithCollection sets the card collection the game draws from.
func WithCollection(c *deck.Collection) Option {
	return func(g *Game) { g.cards = c }
}

// WithID sets the game's identifier used in logs and events.
func WithID(id string) Option {
	return func(g *Game) { g.id = id }
}

// NewGame constructs a game, registers all nine states and leaves it in
// EMPTY, ready for the first player.
func NewGame(opts ...Option) *Game {
	g := &Game{bus: NewEventBus()}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	if g.rng == nil {
		g.rng = randutil.New(time.Now().UnixNano())
	}
	if g.settings == nil {
		g.settings = DefaultSettings()
	}
	if g.cards == nil {
		g.cards = deck.NewCollection(g.rng)
	}
	if g.id == "" {
		g.id = roundid.New()
	}
	g.logger = g.logger.With("game", g.id)
	g.rounds = roundid.NewGenerator(nil)

	m := fsm.New(g.logger).Observe(g.onNotice)
	g.machine = m

	// INIT is only enterable while it is the sole registered state, which
	// pins it to construction time.
	m.AddState(string(StateInit)).
		OnTo(string(StateInit), func(m *fsm.Machine, _ string, _ fsm.Kind, _ ...string) fsm.Vote {
			if m.StateCount() == 1 {
				return fsm.Allow
			}
			return fsm.Deny
		})
	if !m.Transition(string(StateInit)) {
		panic("game: failed to enter INIT at construction")
	}

	g.registerStates(m)

	if !m.Transition(string(StateEmpty)) {
		panic("game: failed to enter EMPTY at construction")
	}
	return g
}

// NewGameWithHost constructs a game that already contains one host player
// and is in WAITING, the shape external integrations start from.
func NewGameWithHost(hostID string, opts ...Option) (*Game, error) {
	g := NewGame(opts...)
	if err := g.AddPlayer(NewPlayer(hostID)); err != nil {
		return nil, err
	}
	return g, nil
}

// registerStates wires the eight post-INIT states with their guards and
// hooks.
func (g *Game) registerStates(m *fsm.Machine) {
	m.AddState(string(StateEmpty)).
		OnFrom(string(StateEmpty), allowOnly(StateWaiting))

	m.AddState(string(StateWaiting)).
		OnTo(string(StateWaiting), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			if len(g.players) >= 1 {
				return fsm.Allow
			}
			return fsm.Deny
		}).
		OnSet(string(StateWaiting), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			for _, p := range g.players {
				p.clearHand()
			}
			return fsm.Abstain
		})

	m.AddState(string(StateDealing)).
		OnTo(string(StateDealing), currentOneOf(m, StateWaiting, StatePlaying, StateInbetweenTurn, StateTsarTurn)).
		OnSet(string(StateDealing), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			g.deal()
			return fsm.Abstain
		})

	m.AddState(string(StatePlaying)).
		OnTo(string(StatePlaying), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			if len(g.players) >= 3 {
				return fsm.Allow
			}
			return fsm.Deny
		}).
		OnFrom(string(StatePlaying), allowOnly(StateWaiting, StateInbetweenTurn))

	m.AddState(string(StateInbetweenTurn)).
		OnTo(string(StateInbetweenTurn), currentOneOf(m, StatePlaying)).
		OnFrom(string(StateInbetweenTurn), allowOnly(StateTsarTurn))

	m.AddState(string(StateTsarTurn)).
		OnTo(string(StateTsarTurn), currentOneOf(m, StateInbetweenTurn)).
		OnFrom(string(StateTsarTurn), allowOnly(StateDealing))

	m.AddState(string(StateEndgame)).
		OnTo(string(StateEndgame), currentOneOf(m, StateTsarTurn)).
		OnFrom(string(StateEndgame), denyAll)

	m.AddState(string(StateKilled)).
		OnTo(string(StateKilled), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			if len(g.players) == 0 {
				return fsm.Allow
			}
			return fsm.Deny
		}).
		OnFrom(string(StateKilled), denyAll).
		OnSet(string(StateKilled), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			g.teardown()
			return fsm.Abstain
		}).
		OnUnset(string(StateKilled), func(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
			panic("game: transition out of KILLED is illegal")
		})
}

// allowOnly builds a from guard that permits leaving only toward the given
// targets.
func allowOnly(targets ...State) fsm.Hook {
	return func(_ *fsm.Machine, _ string, _ fsm.Kind, args ...string) fsm.Vote {
		if len(args) == 0 {
			return fsm.Deny
		}
		for _, t := range targets {
			if args[0] == string(t) {
				return fsm.Allow
			}
		}
		return fsm.Deny
	}
}

// currentOneOf builds a to guard that permits entry only from the given
// states.
func currentOneOf(m *fsm.Machine, froms ...State) fsm.Hook {
	return func(_ *fsm.Machine, _ string, _ fsm.Kind, _ ...string) fsm.Vote {
		for _, f := range froms {
			if m.Current() == string(f) {
				return fsm.Allow
			}
		}
		return fsm.Deny
	}
}

func denyAll(*fsm.Machine, string, fsm.Kind, ...string) fsm.Vote {
	return fsm.Deny
}

// onNotice republishes machine notifications as typed game events.
func (g *Game) onNotice(n fsm.Notice) {
	switch n.Kind {
	case fsm.NoticeStateAdded:
		g.bus.Publish(StateRegisteredEvent{State: State(n.State), timestamp: time.Now()})
	case fsm.NoticeUnknownTarget:
		g.bus.Publish(UnknownStateEvent{Current: State(n.State), Target: n.Other, timestamp: time.Now()})
	case fsm.NoticeGuard:
		g.bus.Publish(GuardResultEvent{
			State:     State(n.State),
			Other:     State(n.Other),
			Transform: n.Transform.String(),
			Allowed:   n.Allowed,
			timestamp: time.Now(),
		})
	case fsm.NoticeLeaving:
		g.bus.Publish(StateLeavingEvent{State: State(n.State), Target: State(n.Other), timestamp: time.Now()})
	case fsm.NoticeEntering:
		g.bus.Publish(StateEnteringEvent{State: State(n.State), Previous: State(n.Other), timestamp: time.Now()})
	}
}

// deal runs the DEALING set hook: discard last round's submissions, refill
// every hand, elect a tsar, draw a prompt, then force straight on to
// PLAYING.
func (g *Game) deal() {
	g.roundID = g.rounds.Generate()

	for _, p := range g.players {
		p.discardPlayed()
		g.fillHand(p)
	}

	g.tsar, _ = randutil.Pick(g.rng, g.players)
	g.black = g.cards.RandomBlack(true)

	tsarID := ""
	if g.tsar != nil {
		tsarID = g.tsar.ID
	}
	prompt := ""
	if g.black != nil {
		prompt = g.black.Template()
	} else {
		g.logger.Warn("No black cards left to deal", "round", g.roundID)
	}
	g.logger.Info("Dealt round", "round", g.roundID, "tsar", tsarID, "prompt", prompt)

	g.machine.SetState(string(StatePlaying), true, true)
}

// fillHand tops the player's hand up to the configured size with cloned
// draws.
func (g *Game) fillHand(p *Player) {
	want := g.settings.PlayerCards.Value
	for len(p.hand) < want {
		card := g.cards.RandomWhite(true)
		if card == nil {
			g.logger.Warn("White deck exhausted while dealing", "player", p.ID, "have", len(p.hand), "want", want)
			return
		}
		p.hand = append(p.hand, card)
	}
}

// teardown runs the KILLED set hook: every owned reference becomes
// unreachable.
func (g *Game) teardown() {
	g.logger.Info("Game killed")
	g.host = nil
	g.tsar = nil
	g.players = nil
	g.cards = nil
	g.black = nil
	g.settings = nil
	g.bus.Publish(GameKilledEvent{GameID: g.id, timestamp: time.Now()})
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

// CurrentState returns the active state.
func (g *Game) CurrentState() State { return State(g.machine.Current()) }

// RoundID returns the identifier of the round dealt most recently.
func (g *Game) RoundID() string { return g.roundID }

// Players returns the players in join order.
func (g *Game) Players() []*Player {
	out := make([]*Player, len(g.players))
	copy(out, g.players)
	return out
}

// Host returns the current host, or nil.
func (g *Game) Host() *Player { return g.host }

// Tsar returns the player judging the current round, or nil outside a
// round.
func (g *Game) Tsar() *Player { return g.tsar }

// BlackCard returns the active round prompt, or nil.
func (g *Game) BlackCard() *deck.BlackCard { return g.black }

// Collection returns the game's card collection; nil once killed.
func (g *Game) Collection() *deck.Collection { return g.cards }

// Settings returns the game's tunables; nil once killed.
func (g *Game) Settings() *Settings { return g.settings }

// Events returns the game's event bus for subscriptions.
func (g *Game) Events() EventBus { return g.bus }

// killed reports whether the game has been torn down.
func (g *Game) killedGame() bool {
	return g.CurrentState() == StateKilled
}

func (g *Game) hasPlayer(p *Player) bool {
	for _, member := range g.players {
		if member == p {
			return true
		}
	}
	return false
}

// PlayerByID returns the member with the given id, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer appends a player. The first join elects them host and moves
// EMPTY to WAITING; a join in the middle of a round deals the newcomer a
// full hand immediately so they can play without waiting for the next deal.
func (g *Game) AddPlayer(p *Player) error {
	if g.killedGame() {
		return ruleErrorf("game is over")
	}
	if len(g.players) >= g.settings.GamePlayerCount.Value {
		return ruleErrorf("game is full (%d players)", g.settings.GamePlayerCount.Value)
	}
	if g.PlayerByID(p.ID) != nil {
		return ruleErrorf("player %q already joined", p.ID)
	}

	g.players = append(g.players, p)
	g.findHost()
	g.logger.Info("Player joined", "player", p.ID, "players", len(g.players))

	switch g.CurrentState() {
	case StateEmpty:
		g.machine.Transition(string(StateWaiting))
	case StateWaiting:
		// Next deal covers them.
	default:
		// Mid-round: late joiners get cards right away.
		g.fillHand(p)
	}
	return nil
}

// RemovePlayer removes the given player.
func (g *Game) RemovePlayer(p *Player) error {
	for i, member := range g.players {
		if member == p {
			return g.RemovePlayerByIndex(i)
		}
	}
	return ruleErrorf("player is not in this game")
}

// RemovePlayerByIndex removes the player at join-order index i. Losing the
// host re-elects the first remaining player; losing the last player kills
// the game; a removal during PLAYING forces the round back to WAITING
// because a round cannot continue short-handed.
func (g *Game) RemovePlayerByIndex(i int) error {
	if i < 0 || i >= len(g.players) {
		return ruleErrorf("no player at index %d", i)
	}

	wasPlaying := g.CurrentState() == StatePlaying
	removed := g.players[i]
	g.players = append(g.players[:i], g.players[i+1:]...)
	g.logger.Info("Player left", "player", removed.ID, "players", len(g.players))

	if g.tsar == removed {
		g.tsar = nil
	}
	g.findHost()

	if wasPlaying && !g.killedGame() {
		g.machine.SetState(string(StateWaiting), true, false)
	}
	return nil
}

// findHost maintains the host invariant after every membership change:
// elect the first player when the host is missing, kill the game when
// nobody remains. Reports whether the host changed.
func (g *Game) findHost() bool {
	if len(g.players) == 0 {
		changed := g.host != nil
		g.host = nil
		g.Kill()
		return changed
	}
	if g.host != nil && g.hasPlayer(g.host) {
		return false
	}
	g.host = g.players[0]
	g.logger.Info("Host elected", "host", g.host.ID)
	return true
}

// Kill force-transitions to KILLED from any state. The force bypasses other
// states' from guards, and KILLED's own to guard (which wants an empty
// player list) is overridden too: the call must succeed regardless. Killing
// an already-killed game is a no-op rather than a forced re-entry, which
// would trip KILLED's fatal unset hook.
func (g *Game) Kill() {
	if g.killedGame() {
		return
	}
	g.machine.SetState(string(StateKilled), true, true)
}
