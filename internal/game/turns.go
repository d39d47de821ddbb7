package game

import (
	"time"

	"github.com/cardtsar/cardtsar/internal/deck"
)

// Start begins the first round. Only valid from WAITING; DEALING's set hook
// chains straight through to PLAYING before this returns.
func (g *Game) Start() error {
	if g.CurrentState() != StateWaiting {
		return ruleErrorf("game can only start from WAITING, not %s", g.CurrentState())
	}
	if !g.machine.Transition(string(StateDealing)) {
		return ruleErrorf("unable to start the game")
	}
	return nil
}

// Play submits a card from the player's hand, located by identity.
func (g *Game) Play(p *Player, card *deck.WhiteCard) error {
	for i, held := range p.hand {
		if held == card {
			return g.PlayByCardIndex(p, i)
		}
	}
	return ruleErrorf("that card is not in your hand")
}

// PlayByCardIndex records the hand index p submits for the active prompt.
// Completing the final outstanding submission chains the round forward to
// TSARTURN synchronously.
func (g *Game) PlayByCardIndex(p *Player, index int) error {
	if g.CurrentState() != StatePlaying {
		return ruleErrorf("cards can only be played during a round, not in %s", g.CurrentState())
	}
	if !g.hasPlayer(p) {
		return ruleErrorf("player is not in this game")
	}
	if p == g.tsar {
		return ruleErrorf("the tsar judges this round and does not play")
	}
	if g.black == nil {
		return ruleErrorf("no prompt is in play")
	}
	need := g.black.FillCount()
	if len(p.played) >= need {
		return ruleErrorf("already submitted %d cards this round", need)
	}
	if index < 0 || index >= len(p.hand) {
		return ruleErrorf("no card at hand index %d", index)
	}
	for _, prev := range p.played {
		if prev == index {
			return ruleErrorf("card at hand index %d already submitted this round", index)
		}
	}

	p.played = append(p.played, index)
	g.logger.Debug("Card played", "player", p.ID, "index", index, "submitted", len(p.played), "need", need)

	if len(p.played) == need {
		g.bus.Publish(SubmissionCompleteEvent{
			PlayerID:  p.ID,
			RoundID:   g.roundID,
			Submitted: need,
			timestamp: time.Now(),
		})
	}

	if g.DonePlaying() {
		g.machine.SetState(string(StateInbetweenTurn), true, false)
		g.machine.SetState(string(StateTsarTurn), true, false)
	}
	return nil
}

// DonePlaying reports whether every non-tsar player has submitted exactly
// as many cards as the active prompt requires.
func (g *Game) DonePlaying() bool {
	if g.black == nil {
		return false
	}
	need := g.black.FillCount()
	for _, p := range g.players {
		if p == g.tsar {
			continue
		}
		if len(p.played) != need {
			return false
		}
	}
	return true
}

// Submission pairs a player with their rendered answer for judging.
type Submission struct {
	Player *Player
	Text   string
}

// FilledInCardsWithPlayer renders the active prompt once per non-tsar
// player, in join order. A player who joined mid-round and has not
// completed a submission is skipped rather than rendered short.
func (g *Game) FilledInCardsWithPlayer() []Submission {
	if g.black == nil {
		return nil
	}
	need := g.black.FillCount()
	var out []Submission
	for _, p := range g.players {
		if p == g.tsar {
			continue
		}
		if len(p.played) < need {
			continue
		}
		out = append(out, Submission{Player: p, Text: g.black.Fill(p.playedCards()...)})
	}
	return out
}

// FilledInCardText returns just the rendered answers, in the same order as
// FilledInCardsWithPlayer.
func (g *Game) FilledInCardText() []string {
	subs := g.FilledInCardsWithPlayer()
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.Text
	}
	return out
}

// ChooseTurnWinnerByIndex lets the tsar pick the winning submission by its
// index in FilledInCardsWithPlayer order. Exactly one player gains exactly
// one point; the game then either loops back to DEALING or, when someone
// has reached the winning score, force-enters ENDGAME.
func (g *Game) ChooseTurnWinnerByIndex(caller *Player, index int) error {
	if g.CurrentState() != StateTsarTurn {
		return ruleErrorf("winners are chosen during TSARTURN, not %s", g.CurrentState())
	}
	if g.tsar == nil || caller != g.tsar {
		return ruleErrorf("only the tsar chooses the winner")
	}

	subs := g.FilledInCardsWithPlayer()
	if index < 0 || index >= len(subs) {
		return ruleErrorf("no submission at index %d", index)
	}

	chosen := subs[index]
	chosen.Player.award()
	g.logger.Info("Tsar chose a winner",
		"round", g.roundID,
		"tsar", caller.ID,
		"winner", chosen.Player.ID,
		"text", chosen.Text,
		"points", chosen.Player.Points())

	g.bus.Publish(TsarChoiceEvent{
		TsarID:    caller.ID,
		WinnerID:  chosen.Player.ID,
		RoundID:   g.roundID,
		Text:      chosen.Text,
		Points:    chosen.Player.Points(),
		timestamp: time.Now(),
	})

	winners := g.Winners()
	if len(winners) == 0 {
		g.machine.Transition(string(StateDealing))
		return nil
	}

	if len(winners) > 1 {
		g.logger.Warn("Multiple simultaneous winners", "count", len(winners))
	}
	ids := make([]string, len(winners))
	for i, w := range winners {
		ids[i] = w.ID
	}
	g.machine.SetState(string(StateEndgame), true, false)
	g.bus.Publish(GameWonEvent{
		WinnerIDs: ids,
		Points:    g.settings.WinPoints.Value,
		timestamp: time.Now(),
	})
	return nil
}

// ForceNextRound abandons the round in progress and deals a new one. This
// is the escape hatch for a stalled round (a player who never submits, a
// tsar who never judges); nobody scores for the abandoned round.
func (g *Game) ForceNextRound() error {
	switch g.CurrentState() {
	case StatePlaying, StateTsarTurn:
	default:
		return ruleErrorf("no round to abandon in %s", g.CurrentState())
	}
	g.logger.Warn("Abandoning stalled round", "round", g.roundID)
	if !g.machine.SetState(string(StateDealing), true, false) {
		return ruleErrorf("unable to abandon the round")
	}
	return nil
}

// IsWinner reports whether p has hit the winning score exactly. Any future
// scoring rule granting more than one point per round would overshoot this
// check.
func (g *Game) IsWinner(p *Player) bool {
	if g.settings == nil {
		return false
	}
	return p.points == g.settings.WinPoints.Value
}

// Winners returns every player at the winning score, in join order.
// Multiple simultaneous winners are possible and treated as anomalous but
// legal.
func (g *Game) Winners() []*Player {
	var out []*Player
	for _, p := range g.players {
		if g.IsWinner(p) {
			out = append(out, p)
		}
	}
	return out
}

// CheckWinner returns the first winner in join order, or nil.
func (g *Game) CheckWinner() *Player {
	for _, p := range g.players {
		if g.IsWinner(p) {
			return p
		}
	}
	return nil
}
