// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/fridacode/internal/types"

// Compile-time interface compliance checks.
var _ types.HistoryStore = (*HistoryStore)(nil)
