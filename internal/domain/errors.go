// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrInvalidReference indicates a repository URL that cannot be parsed
// into an owner/repo pair. Not worth retrying.
var ErrInvalidReference = errors.New("invalid repository reference")

// ErrNotFound indicates the requested entity does not exist or is inaccessible.
var ErrNotFound = errors.New("not found")

// ErrAccessDenied indicates the upstream host rejected the request as unauthorized.
var ErrAccessDenied = errors.New("access denied")

// ErrUpstream indicates an unexpected non-2xx response from an upstream service.
var ErrUpstream = errors.New("upstream error")

// ErrProviderExhausted indicates every configured analysis provider failed
// or returned an empty payload. May succeed on retry once providers recover.
var ErrProviderExhausted = errors.New("all analysis providers exhausted")

// ErrParse indicates a provider responded but its output was not valid
// structured data even after repair.
var ErrParse = errors.New("unparseable provider output")
