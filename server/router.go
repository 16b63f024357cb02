package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// NewRouter 注册 WebSocket、健康检查、监控与管理接口
func NewRouter(g *Game) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(g.cfg.WSPath, g.HandleWS)
	if trimmed := strings.TrimSuffix(g.cfg.WSPath, "/"); trimmed != "" && trimmed != g.cfg.WSPath {
		r.HandleFunc(trimmed, g.HandleWS)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", g.HandleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/admin/config", g.HandleAdminConfig)

	if g.cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(g.cfg.StaticDir)))
	}
	return r
}
