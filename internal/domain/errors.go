package domain

import "errors"

var (
	// ErrNotFound is returned for missing entries, missing paths and empty sequences
	ErrNotFound = errors.New("not found")
	// ErrIO is returned when removal, extraction or scratch wipes fail
	ErrIO = errors.New("i/o error")
	// ErrDecode is returned when media cannot produce a frame
	ErrDecode = errors.New("decode error")
	// ErrNotInAlbum is returned by sub-navigation outside an album
	ErrNotInAlbum = errors.New("not inside an album")
)
