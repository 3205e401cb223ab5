package repository

import "errors"

var ErrNotFound = errors.New("not found")

// ErrConflict は一意制約違反（同時に同じキーが入った等）。
var ErrConflict = errors.New("conflict")
