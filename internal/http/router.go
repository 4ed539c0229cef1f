package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Schedules  *ScheduleHandler
	Overrides  *OverrideHandler
	Agenda     *AgendaHandler
	Feed       *FeedHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/sessions/")
			if token == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteSession(w, r, token)
		})
	}

	if cfg.Users != nil {
		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Users.Me(w, r)
		})
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/users/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Get(w, r, id)
			case http.MethodPut:
				cfg.Users.Update(w, r, id)
			case http.MethodDelete:
				cfg.Users.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Schedules != nil {
		mux.HandleFunc("/schedules", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedules.List(w, r)
			case http.MethodPost:
				cfg.Schedules.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/schedules/", func(w http.ResponseWriter, r *http.Request) {
			routeSchedule(cfg, w, r)
		})
	}

	if cfg.Feed != nil {
		mux.HandleFunc("/ical/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/ical/")
			if token == "" || strings.Contains(token, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Feed.Get(w, r, token)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// routeSchedule dispatches /schedules/{id} and its nested collections. The
// schedule identifier travels to handlers through the request context.
func routeSchedule(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/schedules/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}

	r = r.WithContext(ContextWithScheduleID(r.Context(), segments[0]))

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			cfg.Schedules.Get(w, r)
		case http.MethodPut:
			cfg.Schedules.Update(w, r)
		case http.MethodDelete:
			cfg.Schedules.Delete(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
		return
	}

	switch segments[1] {
	case "shares":
		routeShares(cfg, w, r, segments)
	case "phases":
		routePhases(cfg, w, r, segments)
	case "entries":
		routeEntries(cfg, w, r, segments)
	case "overrides":
		routeOverrides(cfg, w, r, segments)
	case "agenda":
		if len(segments) != 2 || cfg.Agenda == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Agenda.Get(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeShares(cfg RouterConfig, w http.ResponseWriter, r *http.Request, segments []string) {
	switch len(segments) {
	case 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Schedules.Share(w, r)
	case 3:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		cfg.Schedules.Unshare(w, r, segments[2])
	default:
		http.NotFound(w, r)
	}
}

func routePhases(cfg RouterConfig, w http.ResponseWriter, r *http.Request, segments []string) {
	switch len(segments) {
	case 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Schedules.CreatePhase(w, r)
	case 3:
		switch r.Method {
		case http.MethodPut:
			cfg.Schedules.UpdatePhase(w, r, segments[2])
		case http.MethodDelete:
			cfg.Schedules.DeletePhase(w, r, segments[2])
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func routeEntries(cfg RouterConfig, w http.ResponseWriter, r *http.Request, segments []string) {
	switch len(segments) {
	case 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Schedules.CreateEntry(w, r)
	case 3:
		index, err := strconv.Atoi(segments[2])
		if err != nil || index < 0 {
			http.Error(w, errInvalidEntryIndex.Error(), http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodPut:
			cfg.Schedules.UpdateEntry(w, r, index)
		case http.MethodDelete:
			cfg.Schedules.RemoveEntry(w, r, index)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func routeOverrides(cfg RouterConfig, w http.ResponseWriter, r *http.Request, segments []string) {
	if cfg.Overrides == nil {
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 2:
		switch r.Method {
		case http.MethodGet:
			cfg.Overrides.List(w, r)
		case http.MethodPost:
			cfg.Overrides.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 3:
		if segments[2] == "validate" {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Overrides.Validate(w, r)
			return
		}
		switch r.Method {
		case http.MethodPut:
			cfg.Overrides.Update(w, r, segments[2])
		case http.MethodDelete:
			cfg.Overrides.Delete(w, r, segments[2])
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
