package domain

import "errors"

var (
	// ErrChainNotSupported means the requested chain is not part of the wallet config.
	ErrChainNotSupported = errors.New("chain not supported")

	// ErrInvalidAddress means an account address is not a valid hex address.
	ErrInvalidAddress = errors.New("invalid account address")

	// ErrFetchFailed means a data fetch issued through the query cache failed.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTokenDecode means a session token could not be decoded. It never leaves the
	// session package; hydration turns it into a disconnected state.
	ErrTokenDecode = errors.New("session token decode failed")

	// ErrQueryTypeMismatch means a cached value does not have the type the caller expects.
	ErrQueryTypeMismatch = errors.New("cached query value has unexpected type")
)
