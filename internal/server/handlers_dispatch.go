package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Response headers describing the dispatch.
const (
	HeaderDispatchID = "X-Dispatch-ID"
	HeaderHookID     = "X-Hook-ID"
)

// maxBodySize bounds request payloads.
const maxBodySize = 1 << 20

// dispatchHandler returns a handler dispatching to category. The event
// name comes from the {name} URL parameter, or the catch-all for property
// paths, and the actor, if any, from {actorID}.
func (s *Server) dispatchHandler(category types.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			name = strings.Trim(chi.URLParam(r, "*"), "/")
		}
		if name == "" || name == types.Wildcard {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "event name required")
			return
		}

		body, err := readPayload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}

		req := hook.Request{
			Category: category,
			Name:     name,
			Payload:  body,
			Auth:     getAuth(r.Context()),
		}
		if id := chi.URLParam(r, "actorID"); id != "" {
			req.Actor = &types.Actor{ID: id}
		}
		if category == types.CategoryProperty {
			req.Payload = propertyPayload(r.Method, body)
		}

		res, err := s.dispatch(r, req)
		if err != nil {
			// Client went away while a cooperative dispatch was running.
			return
		}
		s.writeResult(w, req, res)
	}
}

// dispatch runs req on the request goroutine, or on the scheduler for a
// cooperative server while the request goroutine waits for the result.
func (s *Server) dispatch(r *http.Request, req hook.Request) (hook.Result, error) {
	if s.sched == nil {
		return s.engine.Dispatch(hook.NewBlockingContext(r.Context()), req), nil
	}
	ec := hook.NewCooperativeContext(r.Context(), s.sched)
	return s.engine.Start(ec, req).WaitContext(r.Context())
}

func (s *Server) writeResult(w http.ResponseWriter, req hook.Request, res hook.Result) {
	w.Header().Set(HeaderDispatchID, res.DispatchID)

	switch res.Kind {
	case hook.ResultHandled:
		w.Header().Set(HeaderHookID, res.HookID)
		writeJSON(w, http.StatusOK, res.Value)
	case hook.ResultDenied:
		writeError(w, http.StatusForbidden, ErrCodePermissionDenied, "not allowed")
	default:
		details := map[string]any{"category": string(req.Category), "name": req.Name}
		if hint := suggest(req.Name, s.engine.Table().Names(req.Category)); hint != "" {
			details["suggestion"] = hint
		}
		writeErrorWithDetails(w, http.StatusNotFound, ErrCodeNotFound, "no hook handled "+string(req.Category)+" "+req.Name, details)
	}
}

// readPayload decodes a JSON body. An empty body yields nil; a non-JSON
// body is passed on as a string.
func readPayload(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodySize {
		return nil, errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return string(data), nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	return v, nil
}

func propertyPayload(method string, value any) map[string]any {
	if method == http.MethodGet {
		return map[string]any{"operation": "get"}
	}
	return map[string]any{"operation": "put", "value": value}
}
