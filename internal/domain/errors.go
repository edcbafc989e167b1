package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrFeedStopped  = errors.New("feed stopped")
	ErrContextDone  = errors.New("context cancelled")
)
