package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/mapview"
	"github.com/sells-group/livability-map/internal/scorer"
	"github.com/sells-group/livability-map/internal/store"
)

const (
	resourceState    = "state"
	resourceFeatures = "features"
)

// handleHealth reports 503 when a configured store is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.coord.State()
	body := map[string]any{
		"status":   "ok",
		"features": st.Features.Len(),
		"version":  st.Version,
	}
	code := http.StatusOK
	if s.store != nil {
		body["store"] = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			s.log.Warn("api: store ping failed", zap.Error(err))
			body["status"] = "degraded"
			body["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, body)
}

// handleState returns the frame without per-feature detail.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	fr := s.coord.Frame()
	s.writeCached(w, resourceState, fr.Version, "application/json", func() ([]byte, error) {
		fr.Features = nil
		return json.Marshal(fr)
	})
}

// handleFeatures returns the scored FeatureCollection with render hints.
func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	st, fr := s.coord.Snapshot()
	s.writeCached(w, resourceFeatures, fr.Version, "application/geo+json", func() ([]byte, error) {
		return dataset.Encode(mapview.Annotate(st, fr))
	})
}

func (s *Server) writeCached(w http.ResponseWriter, resource string, version uint64, contentType string, build func() ([]byte, error)) {
	if s.cache != nil {
		if cached := s.cache.Get(resource, version); cached != nil {
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}
	}

	data, err := build()
	if err != nil {
		s.log.Error("api: render failed", zap.String("resource", resource), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	if s.cache != nil {
		s.cache.Put(resource, version, data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(data)
}

func (s *Server) handlePopup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	html, ok := s.coord.Popup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "feature not found: "+id)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// weightsPatch is a partial weights update; nil fields keep their value.
type weightsPatch struct {
	Safety  *float64 `json:"safety"`
	Parks   *float64 `json:"parks"`
	Transit *float64 `json:"transit"`
	Parking *float64 `json:"parking"`
}

func (p weightsPatch) apply(w scorer.Weights) scorer.Weights {
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{p.Safety, &w.Safety},
		{p.Parks, &w.Parks},
		{p.Transit, &w.Transit},
		{p.Parking, &w.Parking},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return w
}

// handleWeights merges the body onto the current weights inside the
// coordinator, so concurrent partial updates are never lost.
func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	var patch weightsPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid weights: "+err.Error())
		return
	}
	fr, err := s.coord.Update(func(st mapview.State) (mapview.Action, error) {
		return mapview.Action{Kind: mapview.ChangeWeights, Weights: patch.apply(st.Weights)}, nil
	})
	s.respondFrame(w, fr, err)
}

func (s *Server) handleResetWeights(w http.ResponseWriter, _ *http.Request) {
	s.dispatch(w, mapview.Action{Kind: mapview.ResetWeights})
}

type propertyRequest struct {
	Property string `json:"property"`
}

func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid property request: "+err.Error())
		return
	}
	s.dispatch(w, mapview.Action{Kind: mapview.SelectProperty, Property: req.Property})
}

func (s *Server) dispatch(w http.ResponseWriter, a mapview.Action) {
	fr, err := s.coord.Dispatch(a)
	s.respondFrame(w, fr, err)
}

func (s *Server) respondFrame(w http.ResponseWriter, fr mapview.Frame, err error) {
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fr.Features = nil
	writeJSON(w, http.StatusOK, fr)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	fr, err := s.coord.Reload(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	fr.Features = nil
	writeJSON(w, http.StatusOK, fr)
}

// handleListPresets lists built-in presets merged with stored ones; a stored
// preset replaces a built-in of the same name.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	byName := make(map[string]scorer.Preset, len(s.presets))
	for _, p := range s.presets {
		byName[p.Name] = p
	}
	if s.store != nil {
		stored, err := s.store.ListPresets(r.Context())
		if err != nil {
			s.log.Error("api: list presets", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list presets failed")
			return
		}
		for _, p := range stored {
			byName[p.Name] = p
		}
	}

	out := make([]scorer.Preset, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

type presetRequest struct {
	Description string          `json:"description"`
	Weights     *scorer.Weights `json:"weights"`
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req presetRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preset: "+err.Error())
		return
	}
	p := scorer.Preset{Name: chi.URLParam(r, "name"), Description: req.Description}
	if req.Weights != nil {
		p.Weights = *req.Weights
	} else {
		p.Weights = s.coord.State().Weights
	}
	if err := p.Weights.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SavePreset(r.Context(), p); err != nil {
		s.log.Error("api: save preset", zap.String("name", p.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save preset failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")
	existing, err := s.store.GetPreset(r.Context(), name)
	if err != nil {
		s.log.Error("api: get preset", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete preset failed")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "preset not found: "+name)
		return
	}
	if err := s.store.DeletePreset(r.Context(), name); err != nil {
		s.log.Error("api: delete preset", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete preset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := s.findPreset(r, name)
	if err != nil {
		s.log.Error("api: get preset", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "apply preset failed")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "preset not found: "+name)
		return
	}
	s.dispatch(w, mapview.Action{Kind: mapview.ChangeWeights, Weights: p.Weights})
}

// findPreset prefers a stored preset over a built-in one.
func (s *Server) findPreset(r *http.Request, name string) (*scorer.Preset, error) {
	return store.LookupPreset(r.Context(), s.store, s.presets, name)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	snap, err := s.store.SaveSnapshot(r.Context(), store.NewSnapshot(s.coord.Snapshot()))
	if err != nil {
		s.log.Error("api: save snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save snapshot failed")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	snap, err := s.store.GetSnapshot(r.Context(), id)
	if err != nil {
		s.log.Error("api: get snapshot", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get snapshot failed")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, CacheStats{})
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return false
	}
	return true
}
