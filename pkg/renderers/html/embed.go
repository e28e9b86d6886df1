package html

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embedded embed.FS

// TemplatesFS returns the built-in template bundle rooted at the templates
// directory: form.tmpl, level.tmpl, field.tmpl and widgets/<type>.tmpl.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
