package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case Identity:
		o.printIdentity(v)
	case Account:
		o.printAccount(v)
	case SessionList:
		o.printSessionList(v)
	case SessionResult:
		o.printSession(v.Session)
	case GameRecord:
		o.printGameRecord(v)
	case GameList:
		o.printGameList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	AccountID   int64  `json:"account_id,omitempty"`
	GuestID     string `json:"guest_id,omitempty"`
	DisplayName string `json:"display_name"`
	Guest       bool   `json:"guest"`
}

// AuthResult is returned by guest, register and login
type AuthResult struct {
	Token         string   `json:"token"`
	Identity      Identity `json:"identity"`
	ExpiresAt     string   `json:"expires_at"`
	ActiveSession string   `json:"active_session,omitempty"`
}

// Account response type
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is one row of the public session listing
type SessionSummary struct {
	Code      string `json:"code"`
	State     string `json:"state"`
	Host      string `json:"host,omitempty"`
	White     string `json:"white,omitempty"`
	Black     string `json:"black,omitempty"`
	Observers int    `json:"observers"`
}

// SessionList is the public session listing
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

// ParticipantView is one slot of a live session
type ParticipantView struct {
	Identity  Identity `json:"identity"`
	Connected bool     `json:"connected"`
}

// SessionView is the full snapshot of a live session
type SessionView struct {
	Code      string            `json:"code"`
	State     string            `json:"state"`
	Host      *ParticipantView  `json:"host,omitempty"`
	White     *ParticipantView  `json:"white,omitempty"`
	Black     *ParticipantView  `json:"black,omitempty"`
	Observers []ParticipantView `json:"observers"`
	Moves     []string          `json:"moves"`
}

// SessionResult wraps a session snapshot
type SessionResult struct {
	Session SessionView `json:"session"`
}

// SideView names one side of a completed game
type SideView struct {
	AccountID int64  `json:"account_id,omitempty"`
	Name      string `json:"name"`
}

// GameRecord is a completed game
type GameRecord struct {
	ID      int64    `json:"id"`
	Code    string   `json:"code"`
	Moves   string   `json:"moves"`
	Winner  string   `json:"winner"`
	Reason  string   `json:"reason"`
	White   SideView `json:"white"`
	Black   SideView `json:"black"`
	EndedAt string   `json:"ended_at"`
}

// GameList is an account's game history
type GameList struct {
	Games []GameRecord `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printIdentity(id Identity) {
	kind := "account"
	ref := fmt.Sprintf("%d", id.AccountID)
	if id.Guest {
		kind = "guest"
		ref = id.GuestID
	}
	fmt.Printf("Identity: %s (%s %s)\n", id.DisplayName, kind, ref)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printIdentity(a.Identity)
	fmt.Printf("Token: %s\n", a.Token)
	if a.ActiveSession != "" {
		fmt.Printf("Active session: %s\n", a.ActiveSession)
	}
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account: %s (%d)\n", a.Name, a.ID)
	fmt.Printf("Email: %s\n", a.Email)
	fmt.Printf("Record: %dW / %dL / %dD\n", a.Wins, a.Losses, a.Draws)
}

func (o *Output) printSessionList(list SessionList) {
	if len(list.Sessions) == 0 {
		fmt.Println("No public sessions.")
		return
	}
	fmt.Printf("Sessions (%d):\n", len(list.Sessions))
	for _, s := range list.Sessions {
		players := []string{}
		if s.White != "" {
			players = append(players, s.White+" (white)")
		}
		if s.Black != "" {
			players = append(players, s.Black+" (black)")
		}
		fmt.Printf("  %s [%s] %s, %d observers\n",
			s.Code, s.State, strings.Join(players, " vs "), s.Observers)
	}
}

func (o *Output) printSession(s SessionView) {
	fmt.Printf("Session: %s\n", s.Code)
	fmt.Printf("State: %s\n", s.State)
	printSlot := func(label string, p *ParticipantView) {
		if p == nil {
			return
		}
		status := "connected"
		if !p.Connected {
			status = "disconnected"
		}
		fmt.Printf("%s: %s (%s)\n", label, p.Identity.DisplayName, status)
	}
	printSlot("White", s.White)
	printSlot("Black", s.Black)
	printSlot("Host", s.Host)
	fmt.Printf("Observers: %d\n", len(s.Observers))
	if len(s.Moves) > 0 {
		fmt.Printf("Moves: %s\n", strings.Join(s.Moves, " "))
	}
}

func (o *Output) printGameRecord(g GameRecord) {
	fmt.Printf("Game %d (%s)\n", g.ID, g.Code)
	fmt.Printf("%s vs %s\n", g.White.Name, g.Black.Name)
	fmt.Printf("Result: %s (%s)\n", g.Winner, g.Reason)
	if g.Moves != "" {
		fmt.Printf("Moves: %s\n", g.Moves)
	}
}

func (o *Output) printGameList(list GameList) {
	if len(list.Games) == 0 {
		fmt.Println("No games.")
		return
	}
	fmt.Printf("Games (%d):\n", len(list.Games))
	for _, g := range list.Games {
		fmt.Printf("  #%d %s: %s vs %s, %s (%s)\n",
			g.ID, g.Code, g.White.Name, g.Black.Name, g.Winner, g.Reason)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
