// web/embed.go
package web

import "embed"

// Templates 内置页面模板
//
//go:embed templates/*.html
var Templates embed.FS

// Static 内置静态资源
//
//go:embed static
var Static embed.FS
