package model

import "errors"

var (
	// ErrInvalidToken covers every token verification failure: malformed,
	// expired, bad signature, wrong kind, wrong audience. Deliberately one
	// sentinel so failure modes are indistinguishable to the client.
	ErrInvalidToken = errors.New("invalid token")

	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrTokenMismatch = errors.New("refresh token mismatch")
)
