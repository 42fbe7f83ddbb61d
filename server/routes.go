package server

import (
	"cmp"
	"slices"
	"strings"
)

// Route is one registered endpoint. System routes are /health and /info.
type Route struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
	System  bool   `json:"system,omitempty"`
}

var methodRank = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Routes lists the Gin routes with API routes before system ones, each
// group ordered by path and then GET, POST, PUT, PATCH, DELETE.
func (s *Server) Routes() []Route {
	var routes []Route
	for _, r := range s.engine.Routes() {
		routes = append(routes, Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: shortHandler(r.Handler),
			System:  r.Path == "/health" || r.Path == "/info",
		})
	}
	slices.SortFunc(routes, func(a, b Route) int {
		return cmp.Or(
			compareBool(a.System, b.System),
			strings.Compare(a.Path, b.Path),
			cmp.Compare(rank(a.Method), rank(b.Method)),
		)
	})
	return routes
}

func rank(method string) int {
	if i := slices.Index(methodRank, method); i >= 0 {
		return i
	}
	return len(methodRank)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

// shortHandler trims Gin's handler name to something readable:
// "github.com/kbukum/samuelizer/api.(*Handler).Transcribe-fm" becomes
// "Handler.Transcribe" and "server/endpoint.Health.func1" becomes "health".
func shortHandler(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	name = name[strings.LastIndexByte(name, '/')+1:]
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if strings.Contains(name, ".func") {
		for _, p := range slices.Backward(parts) {
			if !strings.HasPrefix(p, "func") {
				return strings.ToLower(p)
			}
		}
	}
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
