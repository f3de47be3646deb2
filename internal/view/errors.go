package view

import "errors"

// ErrParseFailure is recorded on a view whose backend rejected a line.
var ErrParseFailure = errors.New("parse failure")

// ErrNoCommand is returned when a backend's Open did not provide a source.
var ErrNoCommand = errors.New("no command to run")
