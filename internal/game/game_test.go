package game

import (
	"fmt"
	"testing"

	"github.com/cardtsar/cardtsar/internal/deck"
	"github.com/cardtsar/cardtsar/internal/randutil"
)

func testSettings() *Settings {
	return &Settings{
		PlayerCards:     Setting{Value: 5, Min: 1, Max: 20, Default: 10},
		WinPoints:       Setting{Value: 5, Min: 1, Max: 100, Default: 5},
		GamePlayerCount: Setting{Value: 10, Min: 3, Max: 20, Default: 10},
	}
}

// oneSlotCollection builds a deck with plenty of white cards and a single
// one-slot prompt, so every round needs exactly one card per player.
func oneSlotCollection(seed int64, white int) *deck.Collection {
	c := deck.NewCollection(randutil.New(seed))
	for i := 0; i < white; i++ {
		c.AddWhite(deck.NewWhiteCard(fmt.Sprintf("white-%d", i)))
	}
	c.AddBlack(deck.NewBlackCard(deck.Lit("Answer: "), deck.Slot(0)))
	return c
}

func newTestGame(t *testing.T, playerIDs ...string) *Game {
	t.Helper()
	g := NewGame(
		WithRNG(randutil.New(42)),
		WithSettings(testSettings()),
		WithCollection(oneSlotCollection(7, 200)),
	)
	for _, id := range playerIDs {
		if err := g.AddPlayer(NewPlayer(id)); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	return g
}

func TestNewGameEntersEmpty(t *testing.T) {
	g := newTestGame(t)

	if g.CurrentState() != StateEmpty {
		t.Errorf("state = %s, want EMPTY", g.CurrentState())
	}
	if g.machine.StateCount() != 9 {
		t.Errorf("registered states = %d, want 9", g.machine.StateCount())
	}
}

func TestInitOnlyReachableAtConstruction(t *testing.T) {
	g := newTestGame(t)

	// With all nine states registered, INIT's guard denies re-entry.
	if g.machine.Transition(string(StateInit)) {
		t.Error("INIT should not be re-enterable after construction")
	}
}

func TestNewGameWithHost(t *testing.T) {
	g, err := NewGameWithHost("p1",
		WithRNG(randutil.New(1)),
		WithSettings(testSettings()),
		WithCollection(oneSlotCollection(1, 50)),
	)
	if err != nil {
		t.Fatal(err)
	}

	if g.CurrentState() != StateWaiting {
		t.Errorf("state = %s, want WAITING", g.CurrentState())
	}
	if g.Host() == nil || g.Host().ID != "p1" {
		t.Error("factory game should have p1 as host")
	}
	if len(g.Players()) != 1 {
		t.Errorf("players = %d, want 1", len(g.Players()))
	}
}

func TestFirstJoinMovesEmptyToWaiting(t *testing.T) {
	g := newTestGame(t)

	if err := g.AddPlayer(NewPlayer("p1")); err != nil {
		t.Fatal(err)
	}
	if g.CurrentState() != StateWaiting {
		t.Errorf("state = %s, want WAITING after first join", g.CurrentState())
	}
	if g.Host() == nil || g.Host().ID != "p1" {
		t.Error("first player should become host")
	}
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	g := newTestGame(t)
	g.settings.GamePlayerCount.Value = 2

	if err := g.AddPlayer(NewPlayer("p1")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer(NewPlayer("p2")); err != nil {
		t.Fatal(err)
	}

	err := g.AddPlayer(NewPlayer("p3"))
	if err == nil {
		t.Fatal("expected a rule error for a full game")
	}
	if !IsRuleError(err) {
		t.Errorf("error is not a RuleError: %v", err)
	}
	if len(g.Players()) != 2 {
		t.Errorf("players = %d, want 2", len(g.Players()))
	}
}

func TestAddPlayerRejectsDuplicateID(t *testing.T) {
	g := newTestGame(t, "p1")

	if err := g.AddPlayer(NewPlayer("p1")); !IsRuleError(err) {
		t.Errorf("duplicate join error = %v, want rule error", err)
	}
}

func TestStartChainsToPlaying(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")

	if err := g.Start(); err != nil {
		t.Fatal(err)
	}

	if g.CurrentState() != StatePlaying {
		t.Errorf("state = %s, want PLAYING after start", g.CurrentState())
	}
	if g.Tsar() == nil {
		t.Fatal("no tsar elected at dealing")
	}
	if !g.hasPlayer(g.Tsar()) {
		t.Error("tsar is not a game member")
	}
	if g.BlackCard() == nil {
		t.Fatal("no black card drawn at dealing")
	}
	for _, p := range g.Players() {
		if p.HandSize() != g.settings.PlayerCards.Value {
			t.Errorf("player %s hand = %d, want %d", p.ID, p.HandSize(), g.settings.PlayerCards.Value)
		}
	}
	if g.RoundID() == "" {
		t.Error("dealing did not mint a round id")
	}
}

func TestStartOnlyFromWaiting(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")

	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if err := g.Start(); !IsRuleError(err) {
		t.Errorf("second start error = %v, want rule error", err)
	}

	empty := newTestGame(t)
	if err := empty.Start(); !IsRuleError(err) {
		t.Errorf("start from EMPTY error = %v, want rule error", err)
	}
}

func TestLateJoinerGetsFullHand(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}

	late := NewPlayer("late")
	if err := g.AddPlayer(late); err != nil {
		t.Fatal(err)
	}
	if late.HandSize() != g.settings.PlayerCards.Value {
		t.Errorf("late joiner hand = %d, want %d", late.HandSize(), g.settings.PlayerCards.Value)
	}
}

func TestJoinerInWaitingGetsNoCardsYet(t *testing.T) {
	g := newTestGame(t, "p1")

	p2 := NewPlayer("p2")
	if err := g.AddPlayer(p2); err != nil {
		t.Fatal(err)
	}
	if p2.HandSize() != 0 {
		t.Errorf("waiting joiner hand = %d, want 0", p2.HandSize())
	}
}

func TestRemovePlayerDuringPlayingForcesWaiting(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3", "p4")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}

	if err := g.RemovePlayerByIndex(3); err != nil {
		t.Fatal(err)
	}
	// Three players remain, which would be enough, but the round still
	// cannot continue short-handed.
	if g.CurrentState() != StateWaiting {
		t.Errorf("state = %s, want WAITING after a mid-round removal", g.CurrentState())
	}
}

func TestRemoveHostReelects(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")

	if err := g.RemovePlayerByIndex(0); err != nil {
		t.Fatal(err)
	}
	if g.Host() == nil || g.Host().ID != "p2" {
		t.Errorf("host = %v, want p2 re-elected", g.Host())
	}
}

func TestRemoveLastPlayerKillsGame(t *testing.T) {
	g := newTestGame(t, "p1")

	if err := g.RemovePlayerByIndex(0); err != nil {
		t.Fatal(err)
	}
	if g.CurrentState() != StateKilled {
		t.Errorf("state = %s, want KILLED", g.CurrentState())
	}
	if g.Host() != nil || g.Tsar() != nil || g.Collection() != nil || g.BlackCard() != nil || g.Settings() != nil {
		t.Error("killed game still holds owned references")
	}
	if len(g.Players()) != 0 {
		t.Error("killed game still holds players")
	}
}

func TestRemovePlayerBadIndex(t *testing.T) {
	g := newTestGame(t, "p1")

	if err := g.RemovePlayerByIndex(5); !IsRuleError(err) {
		t.Errorf("error = %v, want rule error", err)
	}
	if err := g.RemovePlayerByIndex(-1); !IsRuleError(err) {
		t.Errorf("error = %v, want rule error", err)
	}
}

func TestKillFromAnyState(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}

	// Players remain, so KILLED's own guard would refuse; Kill overrides.
	g.Kill()
	if g.CurrentState() != StateKilled {
		t.Errorf("state = %s, want KILLED", g.CurrentState())
	}
}

func TestKillIsIdempotent(t *testing.T) {
	g := newTestGame(t, "p1")
	g.Kill()

	// A second kill must not force KILLED to re-enter itself, which would
	// run its unset hook and panic.
	g.Kill()
	if g.CurrentState() != StateKilled {
		t.Errorf("state = %s, want KILLED", g.CurrentState())
	}
}

func TestKilledIsTerminal(t *testing.T) {
	g := newTestGame(t, "p1")
	g.Kill()

	// An unforced attempt is denied by the from guard.
	if g.machine.Transition(string(StateWaiting)) {
		t.Error("unforced transition out of KILLED succeeded")
	}
	if g.CurrentState() != StateKilled {
		t.Errorf("state = %s, want KILLED", g.CurrentState())
	}

	// A forced attempt trips the unset hook, which is fatal.
	defer func() {
		if recover() == nil {
			t.Error("expected panic when forcing a transition out of KILLED")
		}
	}()
	g.machine.SetState(string(StateWaiting), true, false)
}

func TestAddPlayerAfterKill(t *testing.T) {
	g := newTestGame(t, "p1")
	g.Kill()

	if err := g.AddPlayer(NewPlayer("p2")); !IsRuleError(err) {
		t.Errorf("join after kill error = %v, want rule error", err)
	}
}

func TestStateAlwaysRegistered(t *testing.T) {
	g := newTestGame(t, "p1", "p2", "p3")

	known := make(map[State]bool)
	for _, name := range g.machine.StateNames() {
		known[State(name)] = true
	}

	check := func() {
		if !known[g.CurrentState()] {
			t.Fatalf("current state %q is not a registered state", g.CurrentState())
		}
	}

	check()
	_ = g.Start()
	check()
	playRound(t, g)
	check()
	_ = g.ChooseTurnWinnerByIndex(g.Tsar(), 0)
	check()
	_ = g.RemovePlayerByIndex(0)
	check()
	g.Kill()
	check()
}
