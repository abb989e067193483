package ui

import "embed"

// Dist embeds the static frontend from dist/. The page is a single
// self-contained HTML file; there is no build step.
//
//go:embed all:dist
var Dist embed.FS
