package service

import "errors"

// Sentinel errors returned by the Service. Callers map them with errors.Is.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrInvalidWidth     = errors.New("canvas width must be a positive finite number")
	ErrTooManySamples   = errors.New("too many samples")
	ErrOffCanvas        = errors.New("sample outside the canvas")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many open sessions")
	ErrNotDrawing       = errors.New("no gesture in progress")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidScore     = errors.New("invalid score")
	ErrNotEligible      = errors.New("score not eligible for the leaderboard")
	ErrBackpressure     = errors.New("submission queue full")
	ErrInvalidLimit     = errors.New("invalid leaderboard limit")
	ErrInvalidSessionID = errors.New("invalid session id")
)
