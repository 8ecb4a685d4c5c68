// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this
// directory; no business logic belongs here.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")
