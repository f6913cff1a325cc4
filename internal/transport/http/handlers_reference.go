package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"afya/internal/match"
	refservice "afya/internal/reference/service"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
)

// ReferenceHandler serves the read-mostly reference data: regions,
// specialties, facilities, and the MCT registry search.
type ReferenceHandler struct {
	reference *refservice.Service
	// trigramThreshold overrides the matcher default for trigram queries
	// that do not pass an explicit threshold. Zero means matcher default.
	trigramThreshold float64
}

func NewReferenceHandler(reference *refservice.Service, trigramThreshold float64) *ReferenceHandler {
	return &ReferenceHandler{reference: reference, trigramThreshold: trigramThreshold}
}

func (h *ReferenceHandler) Register(r chi.Router) {
	r.Get("/specialties", h.handleSpecialties)
	r.Get("/regions", h.handleRegions)
	r.Get("/facilities", h.handleFacilities)
	r.Get("/health-workers/search", h.handleRegistrationSearch)
}

// GET /specialties returns the full list, highest priority first.
func (h *ReferenceHandler) handleSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.reference.Specialties(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"specialties": emptyNotNil(specialties)})
}

// GET /regions filters on parent, type title, and title prefix; with fuzzy
// set the title is matched through the district stop-word normalizer instead.
func (h *ReferenceHandler) handleRegions(w http.ResponseWriter, r *http.Request) {
	filter := refservice.RegionFilter{
		TypeTitle:   r.URL.Query().Get("type"),
		TitlePrefix: r.URL.Query().Get("title"),
	}
	fuzzy, err := h.fuzzyConfig(r.URL.Query().Get("fuzzy"), r.URL.Query().Get("threshold"))
	if err != nil {
		writeError(w, err)
		return
	}
	filter.Fuzzy = fuzzy
	if raw := r.URL.Query().Get("parent"); raw != "" {
		parent, err := id.ParseRegionID(raw)
		if err != nil {
			writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "parent", "invalid parent region id"))
			return
		}
		filter.ParentRegionID = &parent
	}
	regions, err := h.reference.Regions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"regions": emptyNotNil(regions)})
}

// GET /facilities lists facilities, optionally scoped to a region's subtree
// and fuzzily matched on title.
func (h *ReferenceHandler) handleFacilities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	title := query.Get("title")

	var regionID *id.RegionID
	if raw := query.Get("region"); raw != "" {
		parsed, err := id.ParseRegionID(raw)
		if err != nil {
			writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "region", "invalid region id"))
			return
		}
		regionID = &parsed
	}

	fuzzy, err := h.fuzzyConfig(query.Get("fuzzy"), query.Get("threshold"))
	if err != nil {
		writeError(w, err)
		return
	}

	facilities, err := h.reference.Facilities(r.Context(), title, regionID, fuzzy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"facilities": emptyNotNil(facilities)})
}

// GET /health-workers/search looks up MCT registrations by number and fuzzy
// name.
func (h *ReferenceHandler) handleRegistrationSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	count := 0
	if raw := query.Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "count", "invalid count"))
			return
		}
		count = parsed
	}
	records, err := h.reference.SearchRegistrations(r.Context(),
		query.Get("registration_number"), query.Get("name"), count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"registrations": emptyNotNil(records)})
}

// fuzzyConfig parses the optional fuzzy/threshold query pair. An empty
// algorithm disables fuzzy matching entirely.
func (h *ReferenceHandler) fuzzyConfig(algorithm, threshold string) (*match.Config, error) {
	if algorithm == "" {
		return nil, nil
	}
	cfg := match.Config{}
	switch match.Algorithm(algorithm) {
	case match.AlgorithmTrigram:
		cfg.Algorithm = match.AlgorithmTrigram
		cfg.Threshold = h.trigramThreshold
	case match.AlgorithmLevenshtein:
		cfg.Algorithm = match.AlgorithmLevenshtein
	default:
		return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "fuzzy", "unknown matching algorithm")
	}
	if threshold != "" {
		parsed, err := strconv.ParseFloat(threshold, 64)
		if err != nil || parsed < 0 {
			return nil, dErrors.NewWithKey(dErrors.CodeInvalidInput, "threshold", "invalid threshold")
		}
		cfg.Threshold = parsed
	}
	return &cfg, nil
}

// emptyNotNil keeps empty listings as [] instead of null on the wire.
func emptyNotNil[T any](in []*T) []*T {
	if in == nil {
		return []*T{}
	}
	return in
}
