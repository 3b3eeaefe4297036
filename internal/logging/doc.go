// Package logging configures structured slog output for trovo.
//
// Logs are JSON lines written to a size-rotated file under ~/.trovo/logs/.
// With --verbose they are also mirrored to stderr at debug level.
package logging
