// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import "github.com/bureau-foundation/matrixwire/api"

// Routes returns every endpoint of the package.
func Routes() []api.Route {
	return []api.Route{
		GetSupportedVersions,
		Login,
		WhoAmI,
		CreateRoom,
		JoinRoomByIDOrAlias,
		GetRoomAlias,
		GetHierarchy,
		SendMessageEvent,
		SendStateEvent,
		GetStateEvent,
		GetMessageEvents,
		CreateContent,
		GetPushRulesAll,
		GetPushRule,
		SetPushRule,
		DeletePushRule,
		GetPushers,
		SetPusher,
	}
}
