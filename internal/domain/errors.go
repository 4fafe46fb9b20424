package domain

import "errors"

var (
	// ErrNotFound indicates a missing document or cached result
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates a malformed query or ingest payload
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates a missing or wrong admin API key
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates the client exhausted its AI-mode budget
	ErrRateLimited = errors.New("rate limit exceeded")
)
