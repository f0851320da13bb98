// Package appfs embeds the static assets the app needs at runtime:
// database migrations and email templates.
package appfs

import (
	"embed"
	"io/fs"
)

//go:embed migrations templates
var FS embed.FS

func Glob(pattern string) ([]string, error) {
	return fs.Glob(FS, pattern)
}
