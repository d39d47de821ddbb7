package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtsar/cardtsar/internal/game"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// writeTestDeck writes a bag with one one-slot prompt and enough white
// cards for several rounds.
func writeTestDeck(t *testing.T) string {
	t.Helper()

	bag := map[string]interface{}{
		"name":  "test",
		"white": []string{},
		"black": [][]interface{}{{"Answer: ", 0}},
	}
	white := make([]string, 80)
	for i := range white {
		white[i] = fmt.Sprintf("white-%d", i)
	}
	bag["white"] = white

	data, err := json.Marshal(bag)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testConfig(t *testing.T, timeoutSeconds int) *Config {
	cfg := DefaultConfig()
	cfg.Game.Seed = 42
	cfg.Game.PlayerCards = 5
	cfg.Game.WinPoints = 5
	cfg.Game.RoundTimeoutSeconds = timeoutSeconds
	cfg.Decks = []DeckConfig{{Name: "test", Path: writeTestDeck(t)}}
	return cfg
}

func newTestService(t *testing.T, cfg *Config, clock quartz.Clock) *Service {
	t.Helper()

	srv := NewServer("127.0.0.1:0", testLogger())
	svc, err := NewService(srv, cfg, testLogger(), clock)
	require.NoError(t, err)
	srv.SetService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return svc
}

func tsarName(t *testing.T, svc *Service) string {
	t.Helper()
	state, err := svc.Snapshot()
	require.NoError(t, err)
	for _, p := range state.Players {
		if p.IsTsar {
			return p.Name
		}
	}
	t.Fatal("no tsar in snapshot")
	return ""
}

func TestServiceFullRound(t *testing.T) {
	svc := newTestService(t, testConfig(t, 0), quartz.NewReal())

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, svc.Join(name))
	}

	// Only the host (first joiner) may start.
	err := svc.Start("bob")
	require.Error(t, err)
	require.NoError(t, svc.Start("alice"))

	state, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying.String(), state.State)
	assert.NotEmpty(t, state.RoundID)
	assert.NotEmpty(t, state.Prompt)
	require.Len(t, state.Players, 3)

	tsar := tsarName(t, svc)
	for _, name := range []string{"alice", "bob", "carol"} {
		if name == tsar {
			continue
		}
		require.NoError(t, svc.Play(name, []int{0}))
	}

	state, err = svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.StateTsarTurn.String(), state.State)

	require.NoError(t, svc.Choose(tsar, 0))

	state, err = svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying.String(), state.State, "choosing a winner should redeal")

	total := 0
	for _, p := range state.Players {
		total += p.Points
	}
	assert.Equal(t, 1, total, "exactly one point per round")
}

func TestServiceRejectsUnknownPlayers(t *testing.T) {
	svc := newTestService(t, testConfig(t, 0), quartz.NewReal())
	require.NoError(t, svc.Join("alice"))

	assert.Error(t, svc.Leave("nobody"))
	assert.Error(t, svc.Play("nobody", []int{0}))
	assert.Error(t, svc.Choose("nobody", 0))
}

func TestServiceJoinDuplicate(t *testing.T) {
	svc := newTestService(t, testConfig(t, 0), quartz.NewReal())

	require.NoError(t, svc.Join("alice"))
	err := svc.Join("alice")
	require.Error(t, err)
	assert.True(t, game.IsRuleError(err))
}

// The command loop is the only goroutine touching the game, so arbitrary
// interleavings of commands must stay safe under the race detector. The
// individual calls are allowed to fail (full game, wrong state, wrong
// actor); what matters is that the service survives the barrage intact.
func TestServiceSerializesConcurrentCommands(t *testing.T) {
	svc := newTestService(t, testConfig(t, 0), quartz.NewReal())

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, svc.Join(name))
	}
	require.NoError(t, svc.Start("alice"))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				switch w % 4 {
				case 0:
					_, _ = svc.Snapshot()
				case 1:
					_ = svc.Play("bob", []int{i % 5})
				case 2:
					name := fmt.Sprintf("drifter-%d-%d", w, i)
					if err := svc.Join(name); err == nil {
						assert.NoError(t, svc.Leave(name))
					}
				case 3:
					_ = svc.Choose("alice", 0)
				}
			}
		}(w)
	}
	wg.Wait()

	// The founders never leave, so the game is alive and exactly they remain.
	state, err := svc.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, game.StateKilled.String(), state.State)
	require.Len(t, state.Players, 3)
	for _, p := range state.Players {
		assert.Contains(t, []string{"alice", "bob", "carol"}, p.Name)
	}
}

func TestServiceWatchdogAbandonsStalledRound(t *testing.T) {
	clock := quartz.NewMock(t)
	svc := newTestService(t, testConfig(t, 30), clock)

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, svc.Join(name))
	}
	require.NoError(t, svc.Start("alice"))

	state, err := svc.Snapshot()
	require.NoError(t, err)
	stalled := state.RoundID

	// Nobody plays. The round should be abandoned and redealt.
	clock.Advance(30 * time.Second).MustWait(context.Background())

	require.Eventually(t, func() bool {
		state, err := svc.Snapshot()
		return err == nil && state.RoundID != stalled
	}, time.Second, 10*time.Millisecond, "stalled round was never abandoned")

	state, err = svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying.String(), state.State)
	for _, p := range state.Players {
		assert.Zero(t, p.Points, "nobody scores for an abandoned round")
	}
}

func TestServiceWatchdogCoversJudging(t *testing.T) {
	clock := quartz.NewMock(t)
	svc := newTestService(t, testConfig(t, 30), clock)

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, svc.Join(name))
	}
	require.NoError(t, svc.Start("alice"))

	tsar := tsarName(t, svc)
	for _, name := range []string{"alice", "bob", "carol"} {
		if name == tsar {
			continue
		}
		require.NoError(t, svc.Play(name, []int{0}))
	}

	state, err := svc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, game.StateTsarTurn.String(), state.State)
	stalled := state.RoundID

	// The tsar never judges.
	clock.Advance(30 * time.Second).MustWait(context.Background())

	require.Eventually(t, func() bool {
		state, err := svc.Snapshot()
		return err == nil && state.RoundID != stalled
	}, time.Second, 10*time.Millisecond, "stalled judging was never abandoned")
}

func TestServiceRequiresPlayableDecks(t *testing.T) {
	emptyBag, err := json.Marshal(map[string]interface{}{
		"name":  "empty",
		"white": []string{},
		"black": [][]interface{}{},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, emptyBag, 0o644))

	cfg := DefaultConfig()
	cfg.Decks = []DeckConfig{{Name: "empty", Path: path}}

	srv := NewServer("127.0.0.1:0", testLogger())
	_, err = NewService(srv, cfg, testLogger(), quartz.NewReal())
	require.Error(t, err)
}

func TestServiceLeaveLastPlayerKillsGame(t *testing.T) {
	svc := newTestService(t, testConfig(t, 0), quartz.NewReal())

	require.NoError(t, svc.Join("alice"))
	require.NoError(t, svc.Leave("alice"))

	state, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.StateKilled.String(), state.State)
}
