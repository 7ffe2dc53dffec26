package ws

import (
	"encoding/json"
	"errors"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/auth"
)

// Client command types
const (
	CmdCreateSession  = "createSession"
	CmdJoinAsPlayer   = "joinAsPlayer"
	CmdJoinLobby      = "joinLobby"
	CmdLeaveLobby     = "leaveLobby"
	CmdSendMove       = "sendMove"
	CmdChat           = "chat"
	CmdClaimAbandoned = "claimAbandoned"
	CmdGetSnapshot    = "getSnapshot"
)

// Server reply types
const (
	ReplyResult = "result"
	ReplyError  = "error"
)

// Envelope is the frame for every client command. ID correlates the reply.
type Envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply is the frame for direct command replies. Broadcast events share
// the connection but use the broadcast package's own frames.
type Reply struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ErrorBody is the payload of an error reply
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Command payloads

type CreateSessionRequest struct {
	Color    string `json:"color,omitempty"`
	Unlisted bool   `json:"unlisted,omitempty"`
}

type JoinAsPlayerRequest struct {
	Code  string `json:"code"`
	Color string `json:"color"`
}

type JoinLobbyRequest struct {
	Code string `json:"code"`
}

type SendMoveRequest struct {
	Move string `json:"move"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type ClaimAbandonedRequest struct {
	Color string `json:"color"`
}

type GetSnapshotRequest struct {
	// Code defaults to the session the connection has joined
	Code string `json:"code,omitempty"`
}

// errorBody maps a coordinator error to a wire error code via the model's
// error classification
func errorBody(err error) ErrorBody {
	code := "internal"
	if errors.Is(err, auth.ErrInvalidSession) {
		code = "unauthorized"
	} else {
		switch model.Kind(err) {
		case model.KindNotFound:
			code = "not_found"
		case model.KindConflict:
			code = "conflict"
		case model.KindUnauthorized:
			code = "unauthorized"
		case model.KindInvalidTransition:
			code = "invalid_state"
		case model.KindPersistenceFailure:
			code = "persistence_failure"
		}
	}
	return ErrorBody{Code: code, Message: err.Error()}
}

// parseColor validates a wire color string; empty is allowed where the
// command treats it as "random"
func parseColor(raw string, allowEmpty bool) (model.Color, error) {
	switch raw {
	case "":
		if allowEmpty {
			return "", nil
		}
	case string(model.ColorWhite):
		return model.ColorWhite, nil
	case string(model.ColorBlack):
		return model.ColorBlack, nil
	}
	return "", errors.New("color must be white or black")
}
