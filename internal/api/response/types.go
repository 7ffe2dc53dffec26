package response

import (
	"time"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/auth"
)

// IdentityView is the public form of an identity
type IdentityView struct {
	AccountID   int64  `json:"account_id,omitempty"`
	GuestID     string `json:"guest_id,omitempty"`
	DisplayName string `json:"display_name"`
	Guest       bool   `json:"guest"`
}

// AuthResponse is returned on guest creation, registration and login.
// ActiveSession carries the code of a live session the identity still
// participates in, so clients can offer to rejoin.
type AuthResponse struct {
	Token         string       `json:"token"`
	Identity      IdentityView `json:"identity"`
	ExpiresAt     time.Time    `json:"expires_at"`
	ActiveSession string       `json:"active_session,omitempty"`
}

// AccountResponse is the authenticated account's own profile
type AccountResponse struct {
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
	Code      string     `json:"code"`
	State     string     `json:"state"`
	Host      string     `json:"host,omitempty"`
	White     string     `json:"white,omitempty"`
	Black     string     `json:"black,omitempty"`
	Observers int        `json:"observers"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SessionListResponse is the public session listing
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionResponse wraps the full snapshot view of a live session
type SessionResponse struct {
	Session broadcast.SessionView `json:"session"`
}

// GameRecordResponse is a completed game
type GameRecordResponse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Moves     string    `json:"moves"`
	Winner    string    `json:"winner"`
	Reason    string    `json:"reason"`
	White     SideView  `json:"white"`
	Black     SideView  `json:"black"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// SideView names one side of a completed game. AccountID is zero for
// guests; their name is all the record keeps.
type SideView struct {
	AccountID int64  `json:"account_id,omitempty"`
	Name      string `json:"name"`
}

// GameListResponse is an account's game history, newest first
type GameListResponse struct {
	Games []GameRecordResponse `json:"games"`
}

// IdentityViewFrom builds the public form of an identity
func IdentityViewFrom(identity model.Identity) IdentityView {
	return IdentityView{
		AccountID:   int64(identity.AccountID),
		GuestID:     identity.GuestID,
		DisplayName: identity.DisplayName,
		Guest:       identity.IsGuest(),
	}
}

// AuthResponseFromSession builds an auth response from an auth session
func AuthResponseFromSession(session *auth.Session) AuthResponse {
	return AuthResponse{
		Token:     session.Token,
		Identity:  IdentityViewFrom(session.Identity),
		ExpiresAt: session.ExpiresAt,
	}
}

// AccountFromModel builds the profile view of an account
func AccountFromModel(acct *model.Account) AccountResponse {
	return AccountResponse{
		ID:        int64(acct.ID),
		Name:      acct.Name,
		Email:     acct.Email,
		Wins:      acct.Wins,
		Losses:    acct.Losses,
		Draws:     acct.Draws,
		CreatedAt: acct.CreatedAt,
	}
}

// SummaryFromSession builds a listing row from a session snapshot
func SummaryFromSession(s *model.Session) SessionSummary {
	summary := SessionSummary{
		Code:      string(s.Code),
		State:     string(s.State),
		Observers: len(s.Observers),
		StartedAt: s.StartedAt,
		CreatedAt: s.CreatedAt,
	}
	if s.Host != nil {
		summary.Host = s.Host.Identity.DisplayName
	}
	if s.White != nil {
		summary.White = s.White.Identity.DisplayName
	}
	if s.Black != nil {
		summary.Black = s.Black.Identity.DisplayName
	}
	return summary
}

// GameRecordFromModel builds the response form of a completed game
func GameRecordFromModel(rec *model.GameRecord) GameRecordResponse {
	return GameRecordResponse{
		ID:        rec.ID,
		Code:      string(rec.Code),
		Moves:     rec.Moves,
		Winner:    string(rec.Winner),
		Reason:    string(rec.Reason),
		White:     SideView{AccountID: int64(rec.WhiteAccount), Name: rec.WhiteName},
		Black:     SideView{AccountID: int64(rec.BlackAccount), Name: rec.BlackName},
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
	}
}
