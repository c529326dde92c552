// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "fmt"

// BuildOptions parameterizes one outgoing request.
type BuildOptions struct {
	// BaseURL is the scheme and authority of the peer
	// ("https://matrix.example.org").
	BaseURL string
	// Version pins the protocol version. Nil selects the newest stable
	// variant.
	Version *Version
	// AllowUnstable permits unstable variants.
	AllowUnstable bool
	// Supported, when set, selects the variant with [Negotiate] against
	// the peer's /versions response instead of Version/AllowUnstable.
	Supported *SupportedVersions
	// AccessToken fills the bearer slot of access-token endpoints.
	AccessToken string
	// ServerSignature is a precomputed "X-Matrix ..." Authorization value
	// for server-signed endpoints. When empty the slot is reserved and
	// must be filled with [OutgoingMessage.Sign] before sending.
	ServerSignature string
}

type builderState uint8

const (
	builderIdle builderState = iota
	builderBuilt
	builderFailed
)

// RequestBuilder turns one typed request into one OutgoingMessage. It is
// single-use: the first Build call moves it to a terminal state and
// every later call returns ErrBuilderUsed. A RequestBuilder is not safe
// for concurrent use.
type RequestBuilder[Req, Resp any] struct {
	endpoint *Endpoint[Req, Resp]
	options  BuildOptions
	state    builderState
	variant  PathVariant
	message  *OutgoingMessage
}

// NewRequest returns an idle builder for the endpoint.
func (e *Endpoint[Req, Resp]) NewRequest(options BuildOptions) *RequestBuilder[Req, Resp] {
	return &RequestBuilder[Req, Resp]{endpoint: e, options: options}
}

// Build negotiates a variant, fills the credential slot and encodes
// request.
func (b *RequestBuilder[Req, Resp]) Build(request Req) (*OutgoingMessage, error) {
	if b.state != builderIdle {
		return nil, ErrBuilderUsed
	}
	b.state = builderFailed

	metadata := b.endpoint.metadata
	var variant PathVariant
	var err error
	if b.options.Supported != nil {
		variant, err = Negotiate(metadata, *b.options.Supported)
	} else {
		variant, err = SelectVariant(metadata, b.options.Version, b.options.AllowUnstable)
	}
	if err != nil {
		return nil, err
	}

	message, err := b.endpoint.Encode(request, variant)
	if err != nil {
		return nil, err
	}
	message.BaseURL = b.options.BaseURL

	switch metadata.Auth.Scheme {
	case AuthAccessToken:
		if b.options.AccessToken != "" {
			message.Header.Set("Authorization", "Bearer "+b.options.AccessToken)
		} else if metadata.Auth.Required {
			return nil, fmt.Errorf("%s: %w", metadata.Name, ErrNeedsAuthentication)
		}
	case AuthServerSignature:
		if b.options.ServerSignature != "" {
			message.Header.Set("Authorization", b.options.ServerSignature)
		} else {
			message.NeedsSignature = true
		}
	}

	b.state = builderBuilt
	b.variant = variant
	b.message = message
	return message, nil
}

// Message returns the built message, or nil before a successful Build.
func (b *RequestBuilder[Req, Resp]) Message() *OutgoingMessage { return b.message }

// Variant returns the variant the message was built for.
func (b *RequestBuilder[Req, Resp]) Variant() PathVariant { return b.variant }

// Built reports whether Build succeeded.
func (b *RequestBuilder[Req, Resp]) Built() bool { return b.state == builderBuilt }
