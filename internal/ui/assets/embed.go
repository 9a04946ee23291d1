// Package assets embeds the console's static files.
package assets

import "embed"

//go:embed static
var staticFS embed.FS

// StaticFS exposes the embedded static tree for the UI file server.
func StaticFS() embed.FS {
	return staticFS
}
