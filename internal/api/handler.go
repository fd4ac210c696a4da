package api

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/banklens/churnboard/internal/anim"
	"github.com/banklens/churnboard/internal/chartgeom"
	"github.com/banklens/churnboard/internal/config"
	"github.com/banklens/churnboard/internal/export"
	"github.com/banklens/churnboard/internal/models"
	"github.com/banklens/churnboard/internal/records"
	"github.com/banklens/churnboard/internal/snapshot"
	"github.com/banklens/churnboard/internal/store"
)

const defaultAnimationDuration = 1500 * time.Millisecond

// Handler provides HTTP API endpoints
type Handler struct {
	snapshots *snapshot.Store
	analyses  *store.Store
	animator  *anim.Animator
	cfg       config.Config

	// One animation batch is in flight at a time, tied to the analysis it
	// was started for. Switching analyses cancels it so a stale tick cannot
	// overwrite freshly initialized state.
	mu         sync.Mutex
	animHandle *anim.Handle
	animID     string
	lastValues map[string]float64
}

// NewHandler creates a new API handler
func NewHandler(snapshots *snapshot.Store, analyses *store.Store, cfg config.Config) *Handler {
	return &Handler{
		snapshots: snapshots,
		analyses:  analyses,
		animator:  anim.New(),
		cfg:       cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Bundled datasets and saved analyses
	r.HandleFunc("/datasets", h.handleListDatasets).Methods("GET")
	r.HandleFunc("/analyses", h.handleListAnalyses).Methods("GET")
	r.HandleFunc("/analyses", h.handleCreateAnalysis).Methods("POST")
	r.HandleFunc("/analyses/{key}", h.handleDeleteAnalysis).Methods("DELETE")

	// Derived views, available over both sources
	for prefix, resolve := range map[string]resolver{
		"/datasets/{key}": h.resolveDataset,
		"/analyses/{key}": h.resolveAnalysis,
	} {
		r.HandleFunc(prefix, h.withResult(resolve, h.handleGetResult)).Methods("GET")
		r.HandleFunc(prefix+"/records", h.withResult(resolve, h.handleRecords)).Methods("GET")
		r.HandleFunc(prefix+"/segments", h.withResult(resolve, h.handleSegments)).Methods("GET")
		r.HandleFunc(prefix+"/geography", h.withResult(resolve, h.handleGeography)).Methods("GET")
		r.HandleFunc(prefix+"/factors", h.withResult(resolve, h.handleFactors)).Methods("GET")
		r.HandleFunc(prefix+"/export", h.withResult(resolve, h.handleExport)).Methods("GET")
		r.HandleFunc(prefix+"/animate", h.withResult(resolve, h.handleAnimate)).Methods("POST")
		r.HandleFunc(prefix+"/frame", h.withResult(resolve, h.handleFrame)).Methods("GET")
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// resolver loads an analysis result by key, returning a stable identity
// used to tie animations to their source
type resolver func(key string) (string, *models.AnalysisResult, error)

// resultHandler handles a request once its analysis result is resolved
type resultHandler func(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult)

func (h *Handler) resolveDataset(key string) (string, *models.AnalysisResult, error) {
	if h.snapshots == nil {
		return "", nil, fmt.Errorf("no datasets loaded")
	}
	result, err := h.snapshots.Get(key)
	if err != nil {
		return "", nil, err
	}
	return "dataset:" + key, result, nil
}

func (h *Handler) resolveAnalysis(key string) (string, *models.AnalysisResult, error) {
	if h.analyses == nil {
		return "", nil, fmt.Errorf("analysis store not available")
	}
	result, err := h.analyses.Get(key)
	if err != nil {
		return "", nil, err
	}
	return "analysis:" + key, result, nil
}

func (h *Handler) withResult(resolve resolver, fn resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		id, result, err := resolve(key)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		fn(w, r, id, result)
	}
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	datasets := 0
	if h.snapshots != nil {
		datasets = len(h.snapshots.Names())
	}
	info := map[string]interface{}{
		"version":         h.cfg.Version,
		"datasets_loaded": datasets,
		"store_ready":     h.analyses != nil,
	}
	respondJSON(w, http.StatusOK, info)
}

// handleListDatasets returns the bundled dataset names
func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		respondJSON(w, http.StatusOK, []string{})
		return
	}
	respondJSON(w, http.StatusOK, h.snapshots.Names())
}

// handleListAnalyses returns saved analyses, newest first
func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.analyses == nil {
		respondJSON(w, http.StatusOK, []*store.AnalysisMeta{})
		return
	}
	list, err := h.analyses.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*store.AnalysisMeta{}
	}
	respondJSON(w, http.StatusOK, list)
}

type createAnalysisRequest struct {
	Name    string                `json:"name"`
	Results models.AnalysisResult `json:"results"`
}

// handleCreateAnalysis saves an uploaded analysis result
func (h *Handler) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.analyses == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis store not available")
		return
	}

	var req createAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "Untitled analysis"
	}

	meta, err := h.analyses.Create(req.Name, &req.Results)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, meta)
}

// handleDeleteAnalysis removes a saved analysis, cancelling any animation
// that was running for it
func (h *Handler) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.analyses == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis store not available")
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.analyses.Delete(key); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.mu.Lock()
	if h.animID == "analysis:"+key && h.animHandle != nil {
		h.animator.Cancel(h.animHandle)
		h.animHandle = nil
		h.animID = ""
		h.lastValues = nil
	}
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGetResult returns the full analysis result
func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	respondJSON(w, http.StatusOK, result)
}

// handleRecords returns the filtered/sorted/paginated record view
func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	spec := specFromQuery(r)
	respondJSON(w, http.StatusOK, records.ComputeView(result.CustomerDetails, spec))
}

// specFromQuery builds a view specification from query parameters, starting
// from the defaults
func specFromQuery(r *http.Request) records.ViewSpec {
	q := r.URL.Query()
	spec := records.DefaultSpec()

	if v := q.Get("search"); v != "" {
		spec.Search = v
	}
	if v := q.Get("risk"); v != "" {
		spec.RiskLevel = v
	}
	if v := q.Get("geography"); v != "" {
		spec.Geography = v
	}
	if v := q.Get("sort"); v != "" {
		spec.SortField = v
	}
	if v := q.Get("dir"); v == records.DirectionAsc || v == records.DirectionDesc {
		spec.Direction = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		spec.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		spec.PageSize = v
	}
	return spec
}

// riskShares converts the risk distribution into chart shares, in the fixed
// high/medium/low drawing order
func riskShares(result *models.AnalysisResult) []chartgeom.Share {
	d := result.RiskDistribution
	return []chartgeom.Share{
		{Label: "high", Percentage: d.High.Percentage},
		{Label: "medium", Percentage: d.Medium.Percentage},
		{Label: "low", Percentage: d.Low.Percentage},
	}
}

// handleSegments returns radial chart geometry for the risk distribution
func (h *Handler) handleSegments(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	q := r.URL.Query()
	progress := queryFloat(q.Get("progress"), 1)
	shares := riskShares(result)

	if q.Get("mode") == "stroke" {
		radius := queryFloat(q.Get("radius"), 80)
		circumference := 2 * math.Pi * radius
		respondJSON(w, http.StatusOK, chartgeom.StrokeSegments(shares, progress, circumference))
		return
	}

	cx := queryFloat(q.Get("cx"), 100)
	cy := queryFloat(q.Get("cy"), 100)
	inner := queryFloat(q.Get("inner"), 60)
	outer := queryFloat(q.Get("outer"), 90)
	respondJSON(w, http.StatusOK, chartgeom.AnnulusSegments(shares, progress, cx, cy, inner, outer))
}

func queryFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// RegionStat is one region's entry in the geography breakdown
type RegionStat struct {
	Region  string  `json:"region"`
	Count   int     `json:"count"`
	AvgRisk float64 `json:"avg_risk"`
}

// handleGeography returns regions ordered by average risk, highest first
func (h *Handler) handleGeography(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	regions := make([]RegionStat, 0, len(result.GeographyStats))
	for region, stat := range result.GeographyStats {
		regions = append(regions, RegionStat{Region: region, Count: stat.Count, AvgRisk: stat.AvgRisk})
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].AvgRisk != regions[j].AvgRisk {
			return regions[i].AvgRisk > regions[j].AvgRisk
		}
		return regions[i].Region < regions[j].Region
	})
	respondJSON(w, http.StatusOK, regions)
}

// handleFactors returns risk factors ranked by importance
func (h *Handler) handleFactors(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	factors := make([]models.RiskFactor, len(result.RiskFactors))
	copy(factors, result.RiskFactors)
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Importance > factors[j].Importance
	})
	respondJSON(w, http.StatusOK, factors)
}

// handleExport streams the analysis as a CSV attachment, or a plain-text
// summary with format=text
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, export.SummaryText(result))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="churn_analysis.csv"`)
	if err := export.WriteCSV(w, result); err != nil {
		log.Printf("Error writing CSV export: %v", err)
	}
}

// summaryTargets are the animated counters for an analysis
func summaryTargets(result *models.AnalysisResult) map[string]float64 {
	s := result.Summary
	return map[string]float64{
		"total_customers":       float64(s.TotalCustomers),
		"high_risk_customers":   float64(s.HighRiskCustomers),
		"medium_risk_customers": float64(s.MediumRiskCustomers),
		"low_risk_customers":    float64(s.LowRiskCustomers),
		"churn_rate_percentage": s.ChurnRatePercentage,
		"avg_churn_risk":        s.AvgChurnRisk,
	}
}

// handleAnimate starts the summary-counter animation for an analysis. Any
// animation running for a previous analysis is cancelled first.
func (h *Handler) handleAnimate(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	duration := defaultAnimationDuration
	if ms, err := strconv.Atoi(r.URL.Query().Get("duration_ms")); err == nil {
		duration = time.Duration(ms) * time.Millisecond
	}
	continueFromCurrent := r.URL.Query().Get("from") == "current"

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.animHandle != nil {
		h.animator.Cancel(h.animHandle)
	}

	targets := summaryTargets(result)
	var starts map[string]float64
	if continueFromCurrent && h.lastValues != nil {
		starts = h.lastValues
	}

	h.animHandle = h.animator.StartFrom(targets, starts, duration)
	h.animID = id
	h.lastValues = nil

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
		"targets":     targets,
	})
}

// Frame is one tick of the dashboard animation: interpolated counter values
// plus the chart geometry recomputed at the same eased progress
type Frame struct {
	Progress float64             `json:"progress"`
	Values   map[string]float64  `json:"values"`
	Segments []chartgeom.Segment `json:"segments"`
}

// handleFrame advances the animation to the given elapsed time. Counter
// values are computed before chart geometry so displayed numbers and shapes
// agree at the same simulated time. Without a started animation the final
// state is returned, so a stalled or missing tick source fails safe.
func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request, id string, result *models.AnalysisResult) {
	elapsed := time.Duration(queryFloat(r.URL.Query().Get("elapsed_ms"), 0) * float64(time.Millisecond))

	h.mu.Lock()
	defer h.mu.Unlock()

	frame := Frame{Progress: 1, Values: summaryTargets(result)}
	if h.animHandle != nil && h.animID == id {
		frame.Values = h.animator.Tick(h.animHandle, elapsed)
		frame.Progress = h.animator.Progress(h.animHandle, elapsed)
		h.lastValues = frame.Values
	}

	frame.Segments = chartgeom.ComputeSegments(riskShares(result), frame.Progress)
	respondJSON(w, http.StatusOK, frame)
}
