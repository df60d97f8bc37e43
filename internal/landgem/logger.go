package landgem

import "github.com/rs/zerolog"

// logger is used for preset table parsing and debug summaries.
// It discards everything until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger replaces the package logger. Call it once during startup, before
// any calculation runs.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "landgem").Logger()
}
