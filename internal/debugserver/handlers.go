package debugserver

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/host/wshost"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Pattern    string   `json:"pattern"`
	Name       string   `json:"name,omitempty"`
	Params     []string `json:"params,omitempty"`
	Query      []string `json:"query,omitempty"`
	IsFallback bool     `json:"fallback,omitempty"`
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
}

// GET /resolve?path=/user/7
//
// Resolving here never calls the miss handler.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	m, ok, err := s.table.Lookup(path)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		if err := s.table.Check(path); err != nil {
			writeError(w, err)
			return
		}
		fb := s.table.Fallback()
		writeJSON(w, http.StatusOK, StateResponse{
			Path:     path,
			Pattern:  fb.Pattern,
			Name:     fb.Name,
			Params:   map[string]string{},
			Fallback: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, StateResponse{
		Path:    path,
		Pattern: m.Route.Pattern,
		Name:    m.Route.Name,
		Params:  m.Params,
	})
}

// GET /compute?pattern=/user/:id?tab&id=7&tab=info
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("pattern")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing pattern"})
		return
	}

	params := router.Params{}
	for name, values := range q {
		if name == "pattern" || len(values) == 0 {
			continue
		}
		params[name] = values[0]
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"pattern": target,
		"path":    s.table.Compute(target, params),
	})
}

// GET /routes
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.routeInfo())
}

func (s *Server) routeInfo() []RouteInfo {
	fallback := s.table.Fallback()
	routes := s.table.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, rt := range routes {
		info := RouteInfo{Pattern: rt.Pattern, Name: rt.Name, IsFallback: rt == fallback}
		if c, ok := s.table.Compiled(rt); ok {
			info.Params = c.ParamNames()
			info.Query = c.QueryNames()
		}
		out = append(out, info)
	}
	return out
}

// GET /state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse(s.nav.State()))
}

// POST /navigate {"path": "/user/:id", "params": {"id": "7"}}
//
// The response is written once the navigation settles.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing path"})
		return
	}

	var params router.Params
	if req.Params != nil {
		params = router.Params(req.Params)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.navigateTimeout)
	defer cancel()

	state, err := s.nav.Navigate(req.Path, params).Wait(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(state))
}

// POST /back
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"moved": s.mem.Back()})
}

// GET /ws
//
// Each connection drives its own navigator against the browser's location.
// Every state change is pushed back as a state frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	cfg := wshost.DefaultConfig()
	cfg.Logger = s.logger

	h, err := wshost.Upgrade(w, r, cfg)
	if err != nil {
		s.logger.Warn("websocket connection rejected", "error", err)
		return
	}

	nav, err := navigator.New(s.table, h,
		navigator.WithMode(s.cfg.ModeValue()),
		navigator.WithLogger(s.logger.With("remote", r.RemoteAddr)),
		navigator.WithObserver(s.observer),
		navigator.WithAutoInit(false),
	)
	if err != nil {
		h.Close()
		return
	}
	defer nav.Close()

	unsubscribe := nav.Subscribe(func(st navigator.State) {
		if err := h.Notify(stateResponse(st)); err != nil {
			s.logger.Debug("state frame not sent", "error", err)
		}
	})
	defer unsubscribe()

	if err := nav.Init(); err != nil {
		ne := errors.FromError(err, "N002")
		h.Notify(ErrorResponse{Code: ne.Code, Message: err.Error(), Detail: ne.Detail})
		h.Close()
		return
	}

	if err := h.ReadLoop(); err != nil {
		s.logger.Debug("websocket closed", "error", err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>navroute</title>
</head>
<body>
<h1>Routes</h1>
<ul>
{{range .Routes}}<li><code>{{.Pattern}}</code>{{if .Name}} ({{.Name}}){{end}}{{if .IsFallback}} fallback{{end}}</li>
{{end}}</ul>
<pre id="state"></pre>
<script>window.NAVROUTE_WS = {{.WebSocketURL}};</script>
{{.Script}}
<script>
window.addEventListener('navroute:state', function(e) {
    document.getElementById('state').textContent = JSON.stringify(e.detail, null, 2);
});
</script>
</body>
</html>
`))

// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Routes       []RouteInfo
		WebSocketURL string
		Script       template.HTML
	}{
		Routes:       s.routeInfo(),
		WebSocketURL: scheme + "://" + r.Host + "/ws",
		Script:       template.HTML(wshost.ClientScript),
	})
	if err != nil {
		s.logger.Error("render index", "error", err)
	}
}
