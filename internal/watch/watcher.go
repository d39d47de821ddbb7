// Package watch renders a running game's broadcast stream for a terminal.
// A watcher is a plain WebSocket client that never joins the game, so it
// only ever sees the public broadcasts: prompts, anonymous answers and
// results, never a player's hand.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cardtsar/cardtsar/internal/server"
)

// Watcher connects to a game server and renders its broadcasts.
type Watcher struct {
	url    string
	out    io.Writer
	logger *log.Logger
}

// NewWatcher creates a watcher for the given WebSocket URL.
func NewWatcher(url string, out io.Writer, logger *log.Logger) *Watcher {
	return &Watcher{
		url:    url,
		out:    out,
		logger: logger.WithPrefix("watch"),
	}
}

// Run connects and renders messages until the context is cancelled or the
// connection drops.
func (w *Watcher) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.url, err)
	}
	defer func() { _ = conn.Close() }()

	w.logger.Info("Watching game", "url", w.url)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg server.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if line := Render(&msg); line != "" {
			fmt.Fprintln(w.out, line)
		}
	}
}

// Render formats a broadcast message as a single display block. Messages a
// watcher has no use for render as the empty string.
func Render(msg *server.Message) string {
	switch msg.Type {
	case server.MessageTypeRoundStart:
		var data server.RoundStartData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		return fmt.Sprintf("%s\n%s\n%s",
			HeaderStyle.Render(fmt.Sprintf(" ROUND %s ", data.RoundID)),
			PromptStyle.Render(data.Prompt),
			InfoStyle.Render("tsar: "+data.Tsar))

	case server.MessageTypeSubmissions:
		var data server.SubmissionsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		var b strings.Builder
		b.WriteString(PromptStyle.Render(data.Prompt))
		for i, answer := range data.Answers {
			b.WriteString("\n")
			b.WriteString(AnswerStyle.Render(fmt.Sprintf("  [%d] %s", i, answer)))
		}
		return b.String()

	case server.MessageTypeRoundWon:
		var data server.RoundWonData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		return fmt.Sprintf("%s %s",
			WinnerStyle.Render(data.Winner+" wins the round:"),
			AnswerStyle.Render(data.Text))

	case server.MessageTypeGameWon:
		var data server.GameWonData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		return HeaderStyle.Render(fmt.Sprintf(" GAME OVER: %s wins with %d points ",
			strings.Join(data.Winners, ", "), data.Points))

	case server.MessageTypeGameKilled:
		return ErrorStyle.Render("game over: killed")

	case server.MessageTypePlayerJoined:
		var data server.PlayerJoinedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		return PlayerStyle.Render(fmt.Sprintf("%s joined (%d players)", data.PlayerName, data.Players))

	case server.MessageTypePlayerLeft:
		var data server.PlayerLeftData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		return PlayerStyle.Render(fmt.Sprintf("%s left (%d players)", data.PlayerName, data.Players))

	case server.MessageTypeGameState:
		var data server.GameStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return renderBadPayload(msg, err)
		}
		scores := make([]string, 0, len(data.Players))
		for _, p := range data.Players {
			scores = append(scores, fmt.Sprintf("%s:%d", p.Name, p.Points))
		}
		return InfoStyle.Render(fmt.Sprintf("[%s] %s", data.State, strings.Join(scores, " ")))

	default:
		return ""
	}
}

func renderBadPayload(msg *server.Message, err error) string {
	return ErrorStyle.Render(fmt.Sprintf("bad %s payload: %v", msg.Type, err))
}
