package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brusilov1916/brusilov-map/internal/cache"
	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// GeoJSONContentType is the media type of /api/layers responses.
const GeoJSONContentType = "application/geo+json"

type clientConfig struct {
	Tiles struct {
		URLTemplate string `json:"urlTemplate"`
		Subdomains  string `json:"subdomains"`
		Attribution string `json:"attribution"`
	} `json:"tiles"`
	Map struct {
		Center [2]float64 `json:"center"`
		Zoom   int        `json:"zoom"`
	} `json:"map"`
	HistoricalMap struct {
		URL    string `json:"url"`
		Inline bool   `json:"inline"`
	} `json:"historicalMap"`
	Gallery struct {
		Placeholder string `json:"placeholder"`
	} `json:"gallery"`
	Overlay struct {
		CloseDelayMs int64 `json:"closeDelayMs"`
	} `json:"overlay"`
	Contacts struct {
		Email   string `json:"email,omitempty"`
		Website string `json:"website,omitempty"`
		Author  string `json:"author,omitempty"`
	} `json:"contacts"`
	Dataset string `json:"dataset"`
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"dataset":  s.composer.Dataset().Version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var out clientConfig
	out.Tiles.URLTemplate = s.cfg.Tiles.URLTemplate
	out.Tiles.Subdomains = s.cfg.Tiles.Subdomains
	out.Tiles.Attribution = s.cfg.Tiles.Attribution
	out.Map.Center = s.cfg.Map.Center
	out.Map.Zoom = s.cfg.Map.Zoom
	out.HistoricalMap.URL = s.cfg.Map.HistoricalMapURL
	out.HistoricalMap.Inline = s.cfg.Map.HistoricalMapInline
	out.Gallery.Placeholder = s.cfg.Map.GalleryPlaceholder
	out.Overlay.CloseDelayMs = s.cfg.Map.OverlayCloseDelay.Milliseconds()
	out.Contacts.Email = s.cfg.Contacts.Email
	out.Contacts.Website = s.cfg.Contacts.Website
	out.Contacts.Author = s.cfg.Contacts.Author
	out.Dataset = s.composer.Dataset().Version
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	phases := append([]core.PhaseInfo{{ID: core.PhaseAll, Name: "All phases"}}, s.composer.Dataset().Phases...)
	s.writeJSON(w, http.StatusOK, phases)
}

// queryPhase reads and validates ?phase=.
func queryPhase(r *http.Request) (core.Phase, error) {
	return phase.Parse(r.URL.Query().Get("phase"))
}

func queryCRS(r *http.Request) (geo.CRS, error) {
	switch v := r.URL.Query().Get("crs"); v {
	case "", "4326", "EPSG:4326":
		return geo.CRS4326, nil
	case "3857", "EPSG:3857":
		return geo.CRS3857, nil
	default:
		return 0, fmt.Errorf("%w: unsupported crs %q", errBadRequest, v)
	}
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	p, err := queryPhase(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	crs, err := queryCRS(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sel := layers.Selection{Phase: p, MovementID: r.URL.Query().Get("selected")}

	body, cached, err := s.encodedLayers(sel, crs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.usage.LayersServed(string(p), int(crs), len(body), cached)

	w.Header().Set("Content-Type", GeoJSONContentType)
	w.Header().Set("X-Dataset-Version", s.composer.Dataset().Version)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// encodedLayers returns the GeoJSON for sel, from the cache when possible.
func (s *Server) encodedLayers(sel layers.Selection, crs geo.CRS) ([]byte, bool, error) {
	key := cache.Key{Phase: string(sel.Phase), Selected: sel.MovementID, CRS: int(crs)}
	return s.cache.GetOrCompute(key, func() ([]byte, error) {
		l, err := s.composer.Compose(sel)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(l.FeatureCollection(crs))
		if err != nil {
			return nil, fmt.Errorf("encoding layers: %w", err)
		}
		return b, nil
	})
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	p, err := queryPhase(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.composer.Movements(layers.Selection{Phase: p}))
}

func (s *Server) handleFrontLines(w http.ResponseWriter, r *http.Request) {
	p, err := queryPhase(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.composer.FrontLines(p))
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	p, err := queryPhase(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.composer.Cities(p))
}

type cityDetail struct {
	layers.City
	Popup []string `json:"popup"`
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	p, err := queryPhase(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	c, ok := s.composer.City(id, p)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: city %q", errNotFound, id))
		return
	}
	s.writeJSON(w, http.StatusOK, cityDetail{City: c, Popup: c.Popup()})
}

func (s *Server) handleRivers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, layers.RenderedRivers(s.composer.Dataset().Rivers))
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	images := s.composer.Dataset().Gallery
	out := make([]core.GalleryImage, len(images))
	for i, img := range images {
		if img.URL == "" {
			img.URL = s.cfg.Map.GalleryPlaceholder
		}
		out[i] = img
	}
	s.writeJSON(w, http.StatusOK, out)
}
