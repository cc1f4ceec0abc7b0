// internal/backend/images.go
package backend

import (
	"net/url"
	"strings"
)

// ImagePrefix 前端访问生成图片的路径前缀
const ImagePrefix = "/images/"

// ImageURL 丢弃后端路径中的目录部分，只保留文件名，改写为 /images/{basename}
func ImageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return ""
	}
	return ImagePrefix + url.PathEscape(name)
}
