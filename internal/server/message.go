package server

import (
	"encoding/json"
	"time"

	"github.com/cardtsar/cardtsar/internal/game"
)

// MessageType identifies a WebSocket message
type MessageType string

// Client → Server message types
const (
	MessageTypeJoin   MessageType = "join"
	MessageTypeLeave  MessageType = "leave"
	MessageTypeStart  MessageType = "start"
	MessageTypePlay   MessageType = "play"
	MessageTypeChoose MessageType = "choose"
	MessageTypeState  MessageType = "state"
)

// Server → Client message types
const (
	MessageTypeAck          MessageType = "ack"
	MessageTypeError        MessageType = "error"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeHand         MessageType = "hand"
	MessageTypeRoundStart   MessageType = "round_start"
	MessageTypeSubmissions  MessageType = "submissions"
	MessageTypeRoundWon     MessageType = "round_won"
	MessageTypeGameWon      MessageType = "game_won"
	MessageTypeGameKilled   MessageType = "game_killed"
	MessageTypePlayerJoined MessageType = "player_joined"
	MessageTypePlayerLeft   MessageType = "player_left"
)

func (mt MessageType) String() string { return string(mt) }

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	PlayerName string `json:"playerName"`
}

type PlayData struct {
	Indices []int `json:"indices"`
}

type ChooseData struct {
	Index int `json:"index"`
}

// Server → Client Messages

type AckData struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerInfo struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Submitted bool   `json:"submitted"`
	IsTsar    bool   `json:"isTsar"`
	IsHost    bool   `json:"isHost"`
}

type GameStateData struct {
	GameID  string       `json:"gameId"`
	State   string       `json:"state"`
	RoundID string       `json:"roundId,omitempty"`
	Prompt  string       `json:"prompt,omitempty"`
	Players []PlayerInfo `json:"players"`
}

// HandData is sent to one player only: their own cards never appear in a
// broadcast.
type HandData struct {
	RoundID string   `json:"roundId"`
	Prompt  string   `json:"prompt"`
	Cards   []string `json:"cards"`
}

type RoundStartData struct {
	RoundID string `json:"roundId"`
	Prompt  string `json:"prompt"`
	Tsar    string `json:"tsar"`
}

// SubmissionsData carries the rendered answers for judging. Answers are
// anonymous on the wire; only the index is meaningful to the tsar.
type SubmissionsData struct {
	RoundID string   `json:"roundId"`
	Prompt  string   `json:"prompt"`
	Answers []string `json:"answers"`
}

type RoundWonData struct {
	RoundID string `json:"roundId"`
	Winner  string `json:"winner"`
	Tsar    string `json:"tsar"`
	Text    string `json:"text"`
	Points  int    `json:"points"`
}

type GameWonData struct {
	Winners []string `json:"winners"`
	Points  int      `json:"points"`
}

type GameKilledData struct {
	GameID string `json:"gameId"`
}

type PlayerJoinedData struct {
	PlayerName string `json:"playerName"`
	Players    int    `json:"players"`
}

type PlayerLeftData struct {
	PlayerName string `json:"playerName"`
	Players    int    `json:"players"`
}

// Helper functions to convert between internal types and message types

func PlayerInfoFromGame(g *game.Game, p *game.Player) PlayerInfo {
	submitted := false
	if black := g.BlackCard(); black != nil {
		submitted = len(p.Played()) >= black.FillCount()
	}

	return PlayerInfo{
		Name:      p.ID,
		Points:    p.Points(),
		Submitted: submitted,
		IsTsar:    p == g.Tsar(),
		IsHost:    p == g.Host(),
	}
}

func GameStateFromGame(g *game.Game) GameStateData {
	players := make([]PlayerInfo, 0, len(g.Players()))
	for _, p := range g.Players() {
		players = append(players, PlayerInfoFromGame(g, p))
	}

	prompt := ""
	if black := g.BlackCard(); black != nil {
		prompt = black.Template()
	}

	return GameStateData{
		GameID:  g.ID(),
		State:   g.CurrentState().String(),
		RoundID: g.RoundID(),
		Prompt:  prompt,
		Players: players,
	}
}

func HandFromGame(g *game.Game, p *game.Player) HandData {
	prompt := ""
	if black := g.BlackCard(); black != nil {
		prompt = black.Template()
	}

	cards := make([]string, 0, p.HandSize())
	for _, card := range p.Hand() {
		cards = append(cards, card.Text)
	}

	return HandData{
		RoundID: g.RoundID(),
		Prompt:  prompt,
		Cards:   cards,
	}
}
