// Package web holds the embedded frontend templates.
package web

import "embed"

//go:embed all:templates
var Templates embed.FS
