package domain

import "errors"

// Classification of collaborator failures. Remote errors wrap one of these so
// callers can tell a rejected request from an outage without importing the client.
var (
	ErrRejected    = errors.New("request rejected by storefront backend")
	ErrNotFound    = errors.New("resource not found")
	ErrUnavailable = errors.New("storefront backend unavailable")
)
