package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/* static/*
var content embed.FS

// TemplatesFS returns the embedded page templates
func TemplatesFS() fs.FS {
	templatesFS, _ := fs.Sub(content, "templates")
	return templatesFS
}

// StaticFS returns the embedded static assets
func StaticFS() fs.FS {
	staticFS, _ := fs.Sub(content, "static")
	return staticFS
}
