package templates

import "embed"

// PagesFS contains the HTML page templates. Every page is parsed together
// with layout.html.
//
//go:embed pages/*.html
var PagesFS embed.FS

// StaticFS contains stylesheets and images served as-is under /static and /images.
//
//go:embed static
var StaticFS embed.FS
