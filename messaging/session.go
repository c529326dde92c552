// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// Session is a Client plus an access token. Sessions are cheap; many may
// share one Client.
type Session struct {
	client      *Client
	accessToken string
	userID      ref.UserID
	deviceID    string
}

// Login authenticates and returns a Session for the new access token.
func (c *Client) Login(ctx context.Context, request clientapi.LoginRequest) (*Session, error) {
	response, err := Do(ctx, c, clientapi.Login, request)
	if err != nil {
		return nil, fmt.Errorf("messaging: login failed: %w", err)
	}
	c.logger.Info("logged in to matrix",
		"user_id", response.UserID,
		"device_id", response.DeviceID,
	)
	return &Session{
		client:      c,
		accessToken: response.AccessToken,
		userID:      response.UserID,
		deviceID:    response.DeviceID,
	}, nil
}

// SessionFromToken wraps an existing access token. The token is not
// validated; the first call fails if it is bad. userID may be zero and
// filled in later with [Session.WhoAmI].
func (c *Client) SessionFromToken(userID ref.UserID, accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken, userID: userID}
}

func (s *Session) Client() *Client     { return s.client }
func (s *Session) UserID() ref.UserID  { return s.userID }
func (s *Session) DeviceID() string    { return s.deviceID }
func (s *Session) AccessToken() string { return s.accessToken }

// Call sends one authenticated request through endpoint.
func Call[Req, Resp any](ctx context.Context, session *Session, endpoint *api.Endpoint[Req, Resp], request Req) (Resp, error) {
	return send(ctx, session.client, session.accessToken, endpoint, request)
}

// WhoAmI validates the token and records the owning user on the session.
func (s *Session) WhoAmI(ctx context.Context) (ref.UserID, error) {
	response, err := Call(ctx, s, clientapi.WhoAmI, clientapi.WhoAmIRequest{})
	if err != nil {
		return ref.UserID{}, err
	}
	s.userID = response.UserID
	if response.DeviceID != "" {
		s.deviceID = response.DeviceID
	}
	return response.UserID, nil
}

// ResolveAlias resolves a room alias to a room ID.
func (s *Session) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	response, err := Call(ctx, s, clientapi.GetRoomAlias, clientapi.GetRoomAliasRequest{RoomAlias: alias})
	if err != nil {
		return ref.RoomID{}, err
	}
	return response.RoomID, nil
}

// CreateRoom creates a room and returns its ID.
func (s *Session) CreateRoom(ctx context.Context, request clientapi.CreateRoomRequest) (ref.RoomID, error) {
	response, err := Call(ctx, s, clientapi.CreateRoom, request)
	if err != nil {
		return ref.RoomID{}, err
	}
	return response.RoomID, nil
}

// JoinRoom joins by room ID or alias. via lists servers to join
// through; it is sent as both via and the older server_name key.
func (s *Session) JoinRoom(ctx context.Context, target ref.RoomIDOrAlias, via ...string) (ref.RoomID, error) {
	response, err := Call(ctx, s, clientapi.JoinRoomByIDOrAlias, clientapi.JoinRoomByIDOrAliasRequest{
		RoomIDOrAlias: target,
		ServerName:    via,
		Via:           via,
	})
	if err != nil {
		return ref.RoomID{}, err
	}
	return response.RoomID, nil
}

// SendEvent sends a message event with a fresh transaction ID.
func (s *Session) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content wire.Value) (ref.EventID, error) {
	response, err := Call(ctx, s, clientapi.SendMessageEvent, clientapi.SendMessageEventRequest{
		RoomID:    roomID,
		EventType: eventType,
		TxnID:     NewTransactionID(),
		Content:   content,
	})
	if err != nil {
		return ref.EventID{}, err
	}
	return response.EventID, nil
}

// SendStateEvent sets a state event and returns its event ID.
func (s *Session) SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content wire.Value) (ref.EventID, error) {
	response, err := Call(ctx, s, clientapi.SendStateEvent, clientapi.SendStateEventRequest{
		RoomID:    roomID,
		EventType: eventType,
		StateKey:  stateKey,
		Content:   content,
	})
	if err != nil {
		return ref.EventID{}, err
	}
	return response.EventID, nil
}

// GetStateEvent returns the content of one state event.
func (s *Session) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (wire.Value, error) {
	response, err := Call(ctx, s, clientapi.GetStateEvent, clientapi.GetStateEventRequest{
		RoomID:    roomID,
		EventType: eventType,
		StateKey:  stateKey,
	})
	if err != nil {
		return wire.Value{}, err
	}
	return response.Content, nil
}

// GetState reads a state event and decodes its content into T:
//
//	name, err := messaging.GetState[RoomName](ctx, session, roomID, "m.room.name", "")
//
// A missing event fails with M_NOT_FOUND.
func GetState[T any](ctx context.Context, session *Session, roomID ref.RoomID, eventType ref.EventType, stateKey string) (T, error) {
	var result T
	content, err := session.GetStateEvent(ctx, roomID, eventType, stateKey)
	if err != nil {
		return result, fmt.Errorf("reading %s[%q] from room %s: %w", eventType, stateKey, roomID, err)
	}
	if err := content.Decode(&result); err != nil {
		return result, fmt.Errorf("decoding %s from room %s: %w", eventType, roomID, err)
	}
	return result, nil
}
