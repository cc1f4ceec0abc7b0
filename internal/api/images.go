// internal/api/images.go
package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"

	"github.com/Corphon/LifeJourney/internal/backend"
	"github.com/Corphon/LifeJourney/internal/utils"
)

// NewImageProxy 把 /images/{basename} 转发到生成后端的同名路径
func NewImageProxy(backendURL string) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", backendURL)
	}

	logger := utils.GetLogger().Named("images")
	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("image proxy failed", map[string]interface{}{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, backend.ImagePrefix)
		// 只允许单层文件名
		if name == "" || name != path.Base(name) || strings.Contains(name, `\`) || name == ".." {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		proxy.ServeHTTP(w, r)
	}), nil
}
