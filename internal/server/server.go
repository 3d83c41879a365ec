// Package server exposes rendered map artifacts and a JSON API over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// RegionData is the in-memory dataset for one region, loaded once at
// startup.
type RegionData struct {
	Summary greenspace.RegionSummary
	Spaces  []*greenspace.GreenSpace
}

// Server serves map artifacts, the JSON API, and the basemap proxy.
type Server struct {
	artifactDir string
	regions     map[string]*RegionData // keyed by region slug
	slugs       []string               // sorted
	proxy       *TileProxy
	log         *zap.Logger
}

// New creates a Server over the given per-region datasets.
func New(artifactDir string, regions []*RegionData, proxy *TileProxy) *Server {
	byName := make(map[string]*RegionData, len(regions))
	slugs := make([]string, 0, len(regions))
	for _, rd := range regions {
		slug := rd.Summary.Region.Slug()
		byName[slug] = rd
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	return &Server{
		artifactDir: artifactDir,
		regions:     byName,
		slugs:       slugs,
		proxy:       proxy,
		log:         zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleIndex)
	r.Get("/maps/{region}", s.handleMap)
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/spaces", s.handleSpaces)
	r.Get("/api/stats", s.handleStats)
	if s.proxy != nil {
		r.Get("/basemap/{z}/{x}/{y}.png", s.handleBasemap)
	}

	return r
}

// handleIndex serves the rendered index artifact. Until the renderer has
// produced it, respond 503 so clients know to retry rather than caching an
// error page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, filepath.Join(s.artifactDir, "index.html"))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "region")
	if _, ok := s.regions[slug]; !ok {
		http.Error(w, "unknown region", http.StatusNotFound)
		return
	}
	s.serveArtifact(w, r, filepath.Join(s.artifactDir, "greenspace_"+slug+".html"))
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, path string) {
	if _, err := os.Stat(path); err != nil {
		w.Header().Set("Retry-After", "5")
		http.Error(w, "artifact not rendered yet", http.StatusServiceUnavailable)
		return
	}
	http.ServeFile(w, r, path)
}

// regionInfo is the /api/regions response element.
type regionInfo struct {
	Slug    string                   `json:"slug"`
	Map     string                   `json:"map"`
	Summary greenspace.RegionSummary `json:"summary"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	out := make([]regionInfo, 0, len(s.slugs))
	for _, slug := range s.slugs {
		rd := s.regions[slug]
		out = append(out, regionInfo{
			Slug:    slug,
			Map:     "/maps/" + slug,
			Summary: rd.Summary,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSpaces returns filtered features as a GeoJSON FeatureCollection.
// Query params: region (slug, required), type (space type, optional),
// name (substring match, optional).
func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.regionParam(r)
	if !ok {
		http.Error(w, `{"error":"unknown or missing region"}`, http.StatusBadRequest)
		return
	}

	typeFilter := r.URL.Query().Get("type")
	nameFilter := strings.ToLower(r.URL.Query().Get("name"))

	fc := geojson.FeatureCollection{}
	for _, sp := range rd.Spaces {
		if typeFilter != "" && typeFilter != "all" && string(sp.Type) != typeFilter {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(sp.Name), nameFilter) {
			continue
		}
		f := spaceFeature(sp)
		if f != nil {
			fc.Features = append(fc.Features, f)
		}
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(&fc); err != nil {
		s.log.Error("encode spaces response", zap.Error(err))
	}
}

// statsResponse is the /api/stats response.
type statsResponse struct {
	TotalSpaces int                          `json:"total_spaces"`
	NamedSpaces int                          `json:"named_spaces"`
	TypeCounts  map[greenspace.SpaceType]int `json:"type_counts"`
	SourceFile  string                       `json:"source_file"`
	Summary     greenspace.RegionSummary     `json:"summary"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.regionParam(r)
	if !ok {
		http.Error(w, `{"error":"unknown or missing region"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalSpaces: len(rd.Spaces),
		NamedSpaces: greenspace.CountNamed(rd.Spaces),
		TypeCounts:  greenspace.CountByType(rd.Spaces),
		SourceFile:  filepath.Base(rd.Summary.Region.SourceFile),
		Summary:     rd.Summary,
	})
}

func (s *Server) handleBasemap(w http.ResponseWriter, r *http.Request) {
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errZ != nil || errX != nil || errY != nil {
		http.Error(w, "invalid tile path", http.StatusBadRequest)
		return
	}

	data, err := s.proxy.Fetch(r.Context(), z, x, y)
	if err != nil {
		s.log.Error("basemap tile fetch failed", zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// regionParam resolves the region query parameter. A single-region dataset
// is returned even without the parameter.
func (s *Server) regionParam(r *http.Request) (*RegionData, bool) {
	slug := r.URL.Query().Get("region")
	if slug == "" && len(s.slugs) == 1 {
		slug = s.slugs[0]
	}
	rd, ok := s.regions[slug]
	return rd, ok
}

// spaceFeature converts a feature to GeoJSON: the polygon when geometry
// exists, the centroid point otherwise, nil when neither.
func spaceFeature(sp *greenspace.GreenSpace) *geojson.Feature {
	props := map[string]any{
		"name":         sp.Name,
		"space_type":   string(sp.Type),
		"osm_id":       sp.OSMID,
		"osm_type":     sp.OSMType,
		"area_sq_m":    sp.AreaSqM,
		"perimeter_m":  sp.PerimM,
		"has_name":     sp.HasName(),
		"natural":      sp.IsNatural(),
		"recreational": sp.IsRecreational(),
	}

	var g geom.T
	switch {
	case sp.HasGeometry():
		g = sp.Geometry
	case sp.Centroid != nil:
		g = geom.NewPointFlat(geom.XY, []float64{sp.Centroid.Lon, sp.Centroid.Lat}).SetSRID(4326)
	default:
		return nil
	}

	return &geojson.Feature{Geometry: g, Properties: props}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
