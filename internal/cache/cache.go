package cache

import "errors"

// ErrMiss is returned when a key does not exist.
var ErrMiss = errors.New("cache miss")
