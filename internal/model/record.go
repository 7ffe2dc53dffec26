package model

import "time"

// GameRecord is the durable form of a completed session.
// Registered sides keep their account id; guest sides keep only the
// display name they played under.
type GameRecord struct {
	ID           int64
	Code         GameCode
	Moves        string // move log joined into a single notation string
	Winner       Winner
	Reason       EndReason
	WhiteAccount AccountID // zero when white was a guest
	WhiteName    string
	BlackAccount AccountID // zero when black was a guest
	BlackName    string
	StartedAt    time.Time
	EndedAt      time.Time
}
