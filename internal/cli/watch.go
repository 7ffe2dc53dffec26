package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <code>",
		Short: "Join a session as an observer and stream its events",
		Long: `Connect to the live session websocket, join the session's lobby as
an observer and stream events in real time.

Events include:
  - sessionUpdate: full session snapshot after any change
  - chat: chat message relayed to the session's audience

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchSession(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// wsFrame is the common shape of replies and broadcast events
type wsFrame struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func watchSession(code string, jsonOutput bool) error {
	if cfg.Token == "" {
		return fmt.Errorf("not authenticated; run 'bbctl auth guest' or 'bbctl auth login' first")
	}

	wsURL, err := websocketURL(cfg.ServerURL, cfg.Token)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("session token rejected; log in again")
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	join := wsFrame{ID: "join-1", Type: "joinLobby"}
	join.Data, _ = json.Marshal(map[string]string{"code": code})
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join session: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Watching session %s (Ctrl+C to stop)...\n", code)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	frames := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			frames <- raw
		}
	}()

	for {
		select {
		case <-sigCh:
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return nil
		case err := <-errCh:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case raw := <-frames:
			printFrame(raw, jsonOutput)
		}
	}
}

func printFrame(raw []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(raw))
		return
	}

	var frame wsFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), string(raw))
		return
	}

	switch frame.Type {
	case "sessionUpdate":
		var view SessionView
		if err := json.Unmarshal(frame.Data, &view); err == nil {
			last := ""
			if len(view.Moves) > 0 {
				last = ", last move " + view.Moves[len(view.Moves)-1]
			}
			fmt.Printf("[%s] update: %s (%d moves%s)\n",
				time.Now().Format("15:04:05"), view.State, len(view.Moves), last)
			return
		}
	case "chat":
		var msg struct {
			From Identity `json:"from"`
			Text string   `json:"text"`
		}
		if err := json.Unmarshal(frame.Data, &msg); err == nil {
			fmt.Printf("[%s] chat: <%s> %s\n",
				time.Now().Format("15:04:05"), msg.From.DisplayName, msg.Text)
			return
		}
	case "error":
		fmt.Printf("[%s] error: %s\n", time.Now().Format("15:04:05"), string(frame.Data))
		return
	}
	fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), frame.Type, string(frame.Data))
}

// websocketURL converts the configured HTTP base URL to the ws endpoint
func websocketURL(serverURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
