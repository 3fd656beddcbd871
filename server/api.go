package server

import "net/http"

// Api is the route-registration surface handed to feature modules.
type Api interface {
	RegisterRoute(r *Route)
	GetPathParams(r *http.Request) map[string]string
}

type Route struct {
	Path    string
	Methods []string
	Handler func(w http.ResponseWriter, r *http.Request) error
}
