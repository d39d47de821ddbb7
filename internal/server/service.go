package server

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardtsar/cardtsar/internal/deck"
	"github.com/cardtsar/cardtsar/internal/game"
	"github.com/cardtsar/cardtsar/internal/randutil"
)

// Service owns the game and serializes every mutation through a single
// command loop. The engine itself is single-threaded; connections, the
// round watchdog and the hub all funnel their calls through here instead
// of sharing the *game.Game.
type Service struct {
	server   *Server
	logger   *log.Logger
	game     *game.Game
	cmds     chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	watchdog *watchdog
}

// NewService builds the game from configuration and wires its event bus to
// the server's broadcasts.
func NewService(server *Server, cfg *Config, logger *log.Logger, clock quartz.Clock) (*Service, error) {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	collection := deck.NewCollection(rng)
	for _, dc := range cfg.Decks {
		bag, err := deck.LoadBagFile(dc.Path)
		if err != nil {
			return nil, fmt.Errorf("deck %q: %w", dc.Name, err)
		}
		bag.FillCollection(collection)
		logger.Info("Loaded deck", "deck", dc.Name, "white", len(bag.White), "black", len(bag.Black))
	}
	if collection.WhiteCount() == 0 || collection.BlackCount() == 0 {
		return nil, fmt.Errorf("configured decks contain no playable cards")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		server: server,
		logger: logger.WithPrefix("service"),
		cmds:   make(chan func()),
		ctx:    ctx,
		cancel: cancel,
	}

	s.game = game.NewGame(
		game.WithLogger(logger),
		game.WithRNG(rng),
		game.WithSettings(cfg.GameSettings()),
		game.WithCollection(collection),
	)
	s.game.Events().Subscribe(game.SubscriberFunc(s.onGameEvent))

	timeout := time.Duration(cfg.Game.RoundTimeoutSeconds) * time.Second
	s.watchdog = newWatchdog(s, clock, timeout, logger)

	return s, nil
}

// Game returns the service's game. Callers outside the command loop must
// treat it as read-only.
func (s *Service) Game() *game.Game { return s.game }

// Run executes commands until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	defer s.cancel()
	for {
		select {
		case cmd := <-s.cmds:
			cmd()
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// Stop shuts the command loop down.
func (s *Service) Stop() {
	s.cancel()
}

// do runs fn on the command loop and waits for its result.
func (s *Service) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.cmds <- func() { errc <- fn() }:
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Join adds a named player to the game.
func (s *Service) Join(playerName string) error {
	return s.do(func() error {
		p := game.NewPlayer(playerName)
		if err := s.game.AddPlayer(p); err != nil {
			return err
		}

		msg, _ := NewMessage(MessageTypePlayerJoined, PlayerJoinedData{
			PlayerName: playerName,
			Players:    len(s.game.Players()),
		})
		s.server.Broadcast(msg)

		// A mid-round joiner was dealt in immediately and needs their hand.
		if s.game.CurrentState() == game.StatePlaying {
			s.sendHand(p)
		}
		return nil
	})
}

// Leave removes a named player from the game.
func (s *Service) Leave(playerName string) error {
	return s.do(func() error {
		p := s.game.PlayerByID(playerName)
		if p == nil {
			return fmt.Errorf("player %q is not in the game", playerName)
		}
		if err := s.game.RemovePlayer(p); err != nil {
			return err
		}

		msg, _ := NewMessage(MessageTypePlayerLeft, PlayerLeftData{
			PlayerName: playerName,
			Players:    len(s.game.Players()),
		})
		s.server.Broadcast(msg)
		return nil
	})
}

// Start begins the game. Only the host may start.
func (s *Service) Start(playerName string) error {
	return s.do(func() error {
		host := s.game.Host()
		if host == nil || host.ID != playerName {
			return fmt.Errorf("only the host starts the game")
		}
		return s.game.Start()
	})
}

// Play submits hand indices for the named player's answer.
func (s *Service) Play(playerName string, indices []int) error {
	return s.do(func() error {
		p := s.game.PlayerByID(playerName)
		if p == nil {
			return fmt.Errorf("player %q is not in the game", playerName)
		}
		for _, idx := range indices {
			if err := s.game.PlayByCardIndex(p, idx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Choose records the tsar's pick for the round.
func (s *Service) Choose(playerName string, index int) error {
	return s.do(func() error {
		p := s.game.PlayerByID(playerName)
		if p == nil {
			return fmt.Errorf("player %q is not in the game", playerName)
		}
		return s.game.ChooseTurnWinnerByIndex(p, index)
	})
}

// Snapshot returns the broadcastable view of the game.
func (s *Service) Snapshot() (GameStateData, error) {
	var out GameStateData
	err := s.do(func() error {
		out = GameStateFromGame(s.game)
		return nil
	})
	return out, err
}

// onGameEvent forwards engine events to connected clients. It always runs
// on the command loop, because the bus publishes synchronously from within
// game operations.
func (s *Service) onGameEvent(ev game.Event) {
	switch e := ev.(type) {
	case game.StateEnteringEvent:
		s.onStateEntering(e)

	case game.SubmissionCompleteEvent:
		msg, _ := NewMessage(MessageTypeGameState, GameStateFromGame(s.game))
		s.server.Broadcast(msg)

	case game.TsarChoiceEvent:
		msg, _ := NewMessage(MessageTypeRoundWon, RoundWonData{
			RoundID: e.RoundID,
			Winner:  e.WinnerID,
			Tsar:    e.TsarID,
			Text:    e.Text,
			Points:  e.Points,
		})
		s.server.Broadcast(msg)

	case game.GameWonEvent:
		msg, _ := NewMessage(MessageTypeGameWon, GameWonData{
			Winners: e.WinnerIDs,
			Points:  e.Points,
		})
		s.server.Broadcast(msg)

	case game.GameKilledEvent:
		s.watchdog.disarm()
		msg, _ := NewMessage(MessageTypeGameKilled, GameKilledData{GameID: e.GameID})
		s.server.Broadcast(msg)
	}
}

func (s *Service) onStateEntering(e game.StateEnteringEvent) {
	switch e.State {
	case game.StatePlaying:
		prompt := ""
		if black := s.game.BlackCard(); black != nil {
			prompt = black.Template()
		}
		tsarID := ""
		if tsar := s.game.Tsar(); tsar != nil {
			tsarID = tsar.ID
		}

		msg, _ := NewMessage(MessageTypeRoundStart, RoundStartData{
			RoundID: s.game.RoundID(),
			Prompt:  prompt,
			Tsar:    tsarID,
		})
		s.server.Broadcast(msg)

		for _, p := range s.game.Players() {
			s.sendHand(p)
		}
		s.watchdog.arm(s.game.RoundID())

	case game.StateTsarTurn:
		prompt := ""
		if black := s.game.BlackCard(); black != nil {
			prompt = black.Template()
		}

		msg, _ := NewMessage(MessageTypeSubmissions, SubmissionsData{
			RoundID: s.game.RoundID(),
			Prompt:  prompt,
			Answers: s.game.FilledInCardText(),
		})
		s.server.Broadcast(msg)
		// Judging gets its own timeout window.
		s.watchdog.arm(s.game.RoundID())

	case game.StateInbetweenTurn, game.StateDealing:
		// Transient states on the way to PLAYING or TSARTURN.

	default:
		s.watchdog.disarm()
		msg, _ := NewMessage(MessageTypeGameState, GameStateFromGame(s.game))
		s.server.Broadcast(msg)
	}
}

// sendHand sends a player their private cards. Hands never go out in a
// broadcast.
func (s *Service) sendHand(p *game.Player) {
	msg, err := NewMessage(MessageTypeHand, HandFromGame(s.game, p))
	if err != nil {
		s.logger.Error("Failed to create hand message", "error", err)
		return
	}
	if err := s.server.SendToPlayer(p.ID, msg); err != nil {
		s.logger.Debug("Player has no connection for hand delivery", "player", p.ID)
	}
}

// expireRound is called from the watchdog's timer goroutine. The actual
// abandonment runs on the command loop, re-checked against the live round
// in case the game moved on while the expiry was in flight.
func (s *Service) expireRound(roundID string) {
	select {
	case s.cmds <- func() {
		if s.game.RoundID() != roundID {
			return
		}
		switch s.game.CurrentState() {
		case game.StatePlaying, game.StateTsarTurn:
		default:
			return
		}
		s.logger.Warn("Round timed out", "round", roundID, "state", s.game.CurrentState())
		if err := s.game.ForceNextRound(); err != nil {
			s.logger.Error("Failed to abandon stalled round", "round", roundID, "error", err)
		}
	}:
	case <-s.ctx.Done():
	}
}
