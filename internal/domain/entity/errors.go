package entity

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoImage       = errors.New("choose an image first")
	ErrImageDecode   = errors.New("failed to decode image")
	ErrStaleResponse = errors.New("stale inspection response")
)
