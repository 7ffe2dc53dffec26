package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/session"
)

func (c *Conn) dispatch(ctx context.Context, env Envelope) {
	var (
		data any
		err  error
	)

	switch env.Type {
	case CmdCreateSession:
		data, err = c.handleCreateSession(ctx, env.Data)
	case CmdJoinAsPlayer:
		data, err = c.handleJoinAsPlayer(ctx, env.Data)
	case CmdJoinLobby:
		data, err = c.handleJoinLobby(ctx, env.Data)
	case CmdLeaveLobby:
		err = c.handleLeaveLobby(ctx)
	case CmdSendMove:
		data, err = c.handleSendMove(ctx, env.Data)
	case CmdChat:
		err = c.handleChat(ctx, env.Data)
	case CmdClaimAbandoned:
		data, err = c.handleClaimAbandoned(ctx, env.Data)
	case CmdGetSnapshot:
		data, err = c.handleGetSnapshot(env.Data)
	default:
		err = errors.New("unknown command: " + env.Type)
	}

	if err != nil {
		c.logger.Debug("command failed",
			slog.String("type", env.Type),
			slog.Any("error", err))
		c.reply(Reply{ID: env.ID, Type: ReplyError, Data: errorBody(err)})
		return
	}
	c.reply(Reply{ID: env.ID, Type: ReplyResult, Data: data})
}

func (c *Conn) handleCreateSession(ctx context.Context, raw json.RawMessage) (any, error) {
	var req CreateSessionRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	color, err := parseColor(req.Color, true)
	if err != nil {
		return nil, err
	}

	snap, err := c.coordinator.CreateSession(ctx, c.identity, session.CreateOptions{
		Color:    color,
		Unlisted: req.Unlisted,
	})
	if err != nil {
		return nil, err
	}

	c.joinHub(ctx, snap.Code)
	return broadcast.SessionViewFrom(snap), nil
}

func (c *Conn) handleJoinAsPlayer(ctx context.Context, raw json.RawMessage) (any, error) {
	var req JoinAsPlayerRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	color, err := parseColor(req.Color, false)
	if err != nil {
		return nil, err
	}

	code := model.GameCode(req.Code)
	// Subscribe before mutating so the join's own broadcast is not missed
	c.joinHub(ctx, code)

	snap, err := c.coordinator.JoinAsPlayer(ctx, code, c.identity, color)
	if err != nil {
		c.detach(ctx)
		return nil, err
	}
	return broadcast.SessionViewFrom(snap), nil
}

func (c *Conn) handleJoinLobby(ctx context.Context, raw json.RawMessage) (any, error) {
	var req JoinLobbyRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}

	code := model.GameCode(req.Code)
	c.joinHub(ctx, code)

	snap, err := c.coordinator.JoinLobby(ctx, code, c.identity)
	if err != nil {
		c.detach(ctx)
		return nil, err
	}
	return broadcast.SessionViewFrom(snap), nil
}

func (c *Conn) handleLeaveLobby(ctx context.Context) error {
	code := c.leaveHub()
	if code == "" {
		return model.ErrNotInSession
	}
	err := c.coordinator.Disconnect(ctx, code, c.identity.Key())
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (c *Conn) handleSendMove(ctx context.Context, raw json.RawMessage) (any, error) {
	var req SendMoveRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	code := c.currentCode()
	if code == "" {
		return nil, model.ErrNotInSession
	}

	snap, err := c.coordinator.SendMove(ctx, code, c.identity, req.Move)
	if err != nil {
		return nil, err
	}
	return broadcast.SessionViewFrom(snap), nil
}

func (c *Conn) handleChat(ctx context.Context, raw json.RawMessage) error {
	var req ChatRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	code := c.currentCode()
	if code == "" {
		return model.ErrNotInSession
	}
	return c.coordinator.Chat(ctx, code, c.identity, req.Text)
}

func (c *Conn) handleClaimAbandoned(ctx context.Context, raw json.RawMessage) (any, error) {
	var req ClaimAbandonedRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	color, err := parseColor(req.Color, false)
	if err != nil {
		return nil, err
	}
	code := c.currentCode()
	if code == "" {
		return nil, model.ErrNotInSession
	}

	snap, err := c.coordinator.ClaimAbandoned(ctx, code, c.identity, color)
	if err != nil {
		return nil, err
	}
	return broadcast.SessionViewFrom(snap), nil
}

func (c *Conn) handleGetSnapshot(raw json.RawMessage) (any, error) {
	var req GetSnapshotRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	code := model.GameCode(req.Code)
	if code == "" {
		code = c.currentCode()
	}
	if code == "" {
		return nil, model.ErrNotInSession
	}

	snap, err := c.coordinator.GetSnapshot(code)
	if err != nil {
		return nil, err
	}
	return broadcast.SessionViewFrom(snap), nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.New("malformed command payload")
	}
	return nil
}
