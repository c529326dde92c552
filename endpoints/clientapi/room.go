// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// StateEvent is one entry of CreateRoomRequest.InitialState.
type StateEvent struct {
	Type     ref.EventType `json:"type"`
	StateKey string        `json:"state_key"`
	Content  wire.Value    `json:"content"`
}

// CreateRoomRequest holds parameters for creating a room. Every member
// is optional; an empty request creates a private room with server
// defaults.
type CreateRoomRequest struct {
	Visibility    string       `json:"visibility,omitempty"`      // "public" or "private"
	RoomAliasName string       `json:"room_alias_name,omitempty"` // local alias without # or :server
	Name          string       `json:"name,omitempty"`
	Topic         string       `json:"topic,omitempty"`
	Invite        []ref.UserID `json:"invite,omitempty"`
	RoomVersion   string       `json:"room_version,omitempty"`
	// CreationContent is merged into the m.room.create content, e.g.
	// {"type": "m.space"}.
	CreationContent           wire.Value   `json:"creation_content,omitempty"`
	InitialState              []StateEvent `json:"initial_state,omitempty"`
	Preset                    string       `json:"preset,omitempty"`
	IsDirect                  bool         `json:"is_direct,omitempty"`
	PowerLevelContentOverride wire.Value   `json:"power_level_content_override,omitempty"`
}

type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

var CreateRoom = api.MustEndpoint[CreateRoomRequest, CreateRoomResponse](api.Metadata{
	Name:        "client.create_room",
	Description: "Create a new room.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/createRoom")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/createRoom")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// JoinRoomByIDOrAliasRequest joins a room by ID or alias. ServerName and
// Via list servers to attempt the join through; they become repeated
// query keys. Older servers only read server_name.
type JoinRoomByIDOrAliasRequest struct {
	RoomIDOrAlias    ref.RoomIDOrAlias `path:"roomIdOrAlias"`
	ServerName       []string          `query:"server_name"`
	Via              []string          `query:"via"`
	Reason           string            `json:"reason,omitempty"`
	ThirdPartySigned wire.Value        `json:"third_party_signed,omitempty"`
}

type JoinRoomByIDOrAliasResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

var JoinRoomByIDOrAlias = api.MustEndpoint[JoinRoomByIDOrAliasRequest, JoinRoomByIDOrAliasResponse](api.Metadata{
	Name:        "client.join_room_by_id_or_alias",
	Description: "Join a room identified by room ID or alias.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/join/{roomIdOrAlias}")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/join/{roomIdOrAlias}")},
	},
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})

type GetRoomAliasRequest struct {
	RoomAlias ref.RoomAlias `path:"roomAlias"`
}

type GetRoomAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

var GetRoomAlias = api.MustEndpoint[GetRoomAliasRequest, GetRoomAliasResponse](api.Metadata{
	Name:        "client.get_room_alias",
	Description: "Resolve a room alias to a room ID.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/directory/room/{roomAlias}")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/directory/room/{roomAlias}")},
	},
})

// GetHierarchyRequest pages through the space tree below RoomID.
type GetHierarchyRequest struct {
	RoomID        ref.RoomID `path:"roomId"`
	From          string     `query:"from,optional"`
	Limit         *uint      `query:"limit"`
	MaxDepth      *uint      `query:"max_depth"`
	SuggestedOnly bool       `query:"suggested_only,optional"`
}

// SpaceHierarchyRoom is one room of a hierarchy page.
type SpaceHierarchyRoom struct {
	RoomID           ref.RoomID   `json:"room_id"`
	Name             string       `json:"name,omitempty"`
	Topic            string       `json:"topic,omitempty"`
	CanonicalAlias   string       `json:"canonical_alias,omitempty"`
	AvatarURL        string       `json:"avatar_url,omitempty"`
	NumJoinedMembers int          `json:"num_joined_members"`
	WorldReadable    bool         `json:"world_readable"`
	GuestCanJoin     bool         `json:"guest_can_join"`
	JoinRule         string       `json:"join_rule,omitempty"`
	RoomType         string       `json:"room_type,omitempty"`
	ChildrenState    []wire.Value `json:"children_state"`
}

type GetHierarchyResponse struct {
	Rooms     []SpaceHierarchyRoom `json:"rooms"`
	NextBatch string               `json:"next_batch,omitempty"`
}

// GetHierarchy was stabilized in v1.2. Servers that predate it expose
// the same shape under the MSC2946 unstable prefix, advertised as the
// org.matrix.msc2946 unstable feature.
var GetHierarchy = api.MustEndpoint[GetHierarchyRequest, GetHierarchyResponse](api.Metadata{
	Name:        "client.get_hierarchy",
	Description: "Paginate over the rooms of a space.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_2, Template: pathtemplate.MustParse("/_matrix/client/v1/rooms/{roomId}/hierarchy")},
		{
			Version:   api.VersionV1_1,
			Template:  pathtemplate.MustParse("/_matrix/client/unstable/org.matrix.msc2946/rooms/{roomId}/hierarchy"),
			Stability: api.Unstable,
			Feature:   "org.matrix.msc2946",
		},
	},
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})
