// Package scripts embeds the built-in Risor emitter scripts.
package scripts

import "embed"

// FS holds the emitter scripts. Paths are relative to the package
// directory, e.g. "emit/csharp.risor".
//
//go:embed emit/*.risor
var FS embed.FS
