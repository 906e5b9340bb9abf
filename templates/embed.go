package templates

import "embed"

// Emails holds the system email templates, one .html and one .txt per name
//
//go:embed emails/*.html emails/*.txt
var Emails embed.FS

// PDF holds the HTML layouts rendered to PDF
//
//go:embed pdf/*.html
var PDF embed.FS
