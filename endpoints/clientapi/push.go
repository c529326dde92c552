// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// RuleKind is the kind segment of a push rule path. Kinds this package
// does not know are carried verbatim.
type RuleKind string

const (
	RuleKindOverride  RuleKind = "override"
	RuleKindUnderride RuleKind = "underride"
	RuleKindSender    RuleKind = "sender"
	RuleKindRoom      RuleKind = "room"
	RuleKindContent   RuleKind = "content"
)

// IsKnown reports whether k is one of the kinds defined by the protocol.
func (k RuleKind) IsKnown() bool {
	switch k {
	case RuleKindOverride, RuleKindUnderride, RuleKindSender, RuleKindRoom, RuleKindContent:
		return true
	}
	return false
}

// PusherKind selects how a pusher delivers notifications. Unknown kinds
// are carried verbatim.
type PusherKind string

const (
	PusherKindHTTP  PusherKind = "http"
	PusherKindEmail PusherKind = "email"
)

func (k PusherKind) IsKnown() bool {
	return k == PusherKindHTTP || k == PusherKindEmail
}

// PushCondition is one condition of an override or underride rule.
type PushCondition struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Is      string `json:"is,omitempty"`
}

// PushRule is a rule as returned by the server. Actions are kept as raw
// values: the action grammar mixes strings and objects.
type PushRule struct {
	RuleID     string          `json:"rule_id"`
	Default    bool            `json:"default"`
	Enabled    bool            `json:"enabled"`
	Actions    []wire.Value    `json:"actions"`
	Conditions []PushCondition `json:"conditions,omitempty"`
	Pattern    string          `json:"pattern,omitempty"`
}

// Ruleset groups the rules of one scope by kind.
type Ruleset struct {
	Override  []PushRule `json:"override,omitempty"`
	Content   []PushRule `json:"content,omitempty"`
	Room      []PushRule `json:"room,omitempty"`
	Sender    []PushRule `json:"sender,omitempty"`
	Underride []PushRule `json:"underride,omitempty"`
}

type GetPushRulesAllRequest struct{}

type GetPushRulesAllResponse struct {
	Global Ruleset `json:"global"`
}

var GetPushRulesAll = api.MustEndpoint[GetPushRulesAllRequest, GetPushRulesAllResponse](api.Metadata{
	Name:        "client.get_push_rules_all",
	Description: "Fetch every push rule of the user.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/pushrules/")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/pushrules/")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

var pushRuleVariants = []api.PathVariant{
	{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/pushrules/{scope}/{kind}/{ruleId}")},
	{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/pushrules/{scope}/{kind}/{ruleId}")},
}

// PushRuleLocation addresses one rule. Scope is "global" on every
// current server.
type PushRuleLocation struct {
	Scope  string   `path:"scope"`
	Kind   RuleKind `path:"kind"`
	RuleID string   `path:"ruleId"`
}

type GetPushRuleResponse struct {
	Rule PushRule `wire:"newtype"`
}

var GetPushRule = api.MustEndpoint[PushRuleLocation, GetPushRuleResponse](api.Metadata{
	Name:        "client.get_push_rule",
	Description: "Fetch one push rule.",
	Method:      http.MethodGet,
	Variants:    pushRuleVariants,
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// SetPushRuleRequest creates or replaces a rule. Before and After place
// a new rule relative to an existing one.
type SetPushRuleRequest struct {
	Scope      string          `path:"scope"`
	Kind       RuleKind        `path:"kind"`
	RuleID     string          `path:"ruleId"`
	Before     string          `query:"before,optional"`
	After      string          `query:"after,optional"`
	Actions    []wire.Value    `json:"actions"`
	Conditions []PushCondition `json:"conditions,omitempty"`
	Pattern    string          `json:"pattern,omitempty"`
}

// EmptyResponse is the {} reply of endpoints that return nothing.
type EmptyResponse struct{}

var SetPushRule = api.MustEndpoint[SetPushRuleRequest, EmptyResponse](api.Metadata{
	Name:        "client.set_push_rule",
	Description: "Create or replace a push rule.",
	Method:      http.MethodPut,
	Variants:    pushRuleVariants,
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})

var DeletePushRule = api.MustEndpoint[PushRuleLocation, EmptyResponse](api.Metadata{
	Name:        "client.delete_push_rule",
	Description: "Delete a push rule.",
	Method:      http.MethodDelete,
	Variants:    pushRuleVariants,
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// PusherData configures delivery. URL is required for http pushers.
type PusherData struct {
	URL    string `json:"url,omitempty"`
	Format string `json:"format,omitempty"`
}

type Pusher struct {
	PushKey           string     `json:"pushkey"`
	Kind              PusherKind `json:"kind"`
	AppID             string     `json:"app_id"`
	AppDisplayName    string     `json:"app_display_name"`
	DeviceDisplayName string     `json:"device_display_name"`
	ProfileTag        string     `json:"profile_tag,omitempty"`
	Lang              string     `json:"lang"`
	Data              PusherData `json:"data"`
}

type GetPushersRequest struct{}

type GetPushersResponse struct {
	Pushers []Pusher `json:"pushers"`
}

var GetPushers = api.MustEndpoint[GetPushersRequest, GetPushersResponse](api.Metadata{
	Name:        "client.get_pushers",
	Description: "List the pushers registered for the user.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/pushers")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/pushers")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// SetPusherRequest creates, updates or deletes a pusher. A nil Kind is
// sent as null and deletes the pusher identified by AppID and PushKey.
type SetPusherRequest struct {
	PushKey           string      `json:"pushkey"`
	Kind              *PusherKind `json:"kind"`
	AppID             string      `json:"app_id"`
	AppDisplayName    string      `json:"app_display_name,omitempty"`
	DeviceDisplayName string      `json:"device_display_name,omitempty"`
	ProfileTag        string      `json:"profile_tag,omitempty"`
	Lang              string      `json:"lang,omitempty"`
	Data              *PusherData `json:"data,omitempty"`
	Append            bool        `json:"append,omitempty"`
}

var SetPusher = api.MustEndpoint[SetPusherRequest, EmptyResponse](api.Metadata{
	Name:        "client.set_pusher",
	Description: "Create, update or delete a pusher.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/pushers/set")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/pushers/set")},
	},
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})
