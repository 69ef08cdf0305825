package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/go-chi/chi/v5"

	"flipscan/models"
	"flipscan/scanner"
	"flipscan/services"
	"flipscan/utils"
)

// Server exposes the scan coordinator over HTTP.
type Server struct {
	coordinator *scanner.Coordinator
	logger      *utils.Logger
	specDir     string
}

// New creates a Server. specDir is the directory holding openapi.yaml for the
// interactive docs page.
func New(coordinator *scanner.Coordinator, logger *utils.Logger, specDir string) *Server {
	if specDir == "" {
		specDir = "./"
	}
	return &Server{coordinator: coordinator, logger: logger, specDir: specDir}
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.handleDocs)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1/arbitrage", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/status", s.handleStatus)
		r.Post("/clear-cache", s.handleClearCache)
		r.Post("/calculate", s.handleCalculate)
	})

	return r
}

type scanRequest struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

type scanResponse struct {
	Category      string                `json:"category"`
	Subcategories []string              `json:"subcategories"`
	Count         int                   `json:"count"`
	Opportunities []*models.Opportunity `json:"opportunities"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeBadRequest(w, "Field 'category' is required", r.URL.Path)
		return
	}
	if len(req.Subcategories) == 0 {
		writeBadRequest(w, "Field 'subcategories' must name at least one subcategory", r.URL.Path)
		return
	}

	opportunities, err := s.coordinator.CoordinateScan(r.Context(), req.Category, req.Subcategories)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeGatewayTimeout(w, "Scan did not finish before the deadline", r.URL.Path)
			return
		}
		writeInternalServerError(w, err, r.URL.Path)
		return
	}
	if opportunities == nil {
		opportunities = []*models.Opportunity{}
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Category:      req.Category,
		Subcategories: req.Subcategories,
		Count:         len(opportunities),
		Opportunities: opportunities,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	// Without a category the endpoint reports coordinator-wide stats.
	if strings.TrimSpace(category) == "" {
		writeJSON(w, http.StatusOK, map[string]int{
			"activeScans": s.coordinator.ActiveScanCount(),
			"cachedScans": s.coordinator.CacheSize(),
		})
		return
	}

	subcategories := splitParam(r.URL.Query().Get("subcategories"))
	record, ok := s.coordinator.Status(category, subcategories)
	if !ok {
		writeNotFound(w, fmt.Sprintf("No scan found for category %q", category), r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

type clearCacheRequest struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	var req clearCacheRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "Invalid JSON body: "+err.Error(), r.URL.Path)
			return
		}
	}

	cleared := s.coordinator.ClearCache(req.Category, req.Subcategories)
	s.logger.Info("[server] Cleared %d cached scan(s)", cleared)

	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

type calculateRequest struct {
	BuyPrice        float64 `json:"buyPrice"`
	SellPrice       float64 `json:"sellPrice"`
	SellMarketplace string  `json:"sellMarketplace"`
	ShippingCost    float64 `json:"shippingCost"`
	FreeShipping    bool    `json:"freeShipping"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.BuyPrice <= 0 || req.SellPrice <= 0 {
		writeBadRequest(w, "Fields 'buyPrice' and 'sellPrice' must be positive", r.URL.Path)
		return
	}
	if strings.TrimSpace(req.SellMarketplace) == "" {
		writeBadRequest(w, "Field 'sellMarketplace' is required", r.URL.Path)
		return
	}

	quote := services.QuoteProfit(req.BuyPrice, req.SellPrice, req.ShippingCost, req.FreeShipping, req.SellMarketplace)
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDocs serves the interactive Scalar reference built from openapi.yaml.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir(s.specDir),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("FlipScan Arbitrage API"),
		),
	)
	if err != nil {
		writeInternalServerError(w, err, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
