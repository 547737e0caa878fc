// backend/src/handlers/portfolio_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/folioview/backend/src/database"
	"github.com/username/folioview/backend/src/logger"
	"github.com/username/folioview/backend/src/model"
	"github.com/username/folioview/backend/src/models"
	"github.com/username/folioview/backend/src/security/validation"
	"github.com/username/folioview/backend/src/services"
	"github.com/username/folioview/backend/src/utils"
)

const MaxPortfolios = 50 // Hard cap on stored portfolios

type PortfolioHandler struct {
	analyticsService services.AnalyticsService
}

func NewPortfolioHandler(analyticsService services.AnalyticsService) *PortfolioHandler {
	return &PortfolioHandler{
		analyticsService: analyticsService,
	}
}

func (h *PortfolioHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := model.ListPortfolios(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list portfolios", "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolios", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolios)
}

func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Type         string `json:"type"`
		BaseCurrency string `json:"base_currency"`
		Description  string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		utils.SendJSONError(w, "Portfolio name is required", http.StatusBadRequest)
		return
	}
	portfolioType := models.PortfolioType(req.Type)
	if !portfolioType.Valid() {
		utils.SendJSONError(w, "Portfolio type must be 'transaction' or 'snapshot'", http.StatusBadRequest)
		return
	}
	if req.BaseCurrency == "" {
		req.BaseCurrency = "USD"
	}

	var currentCount int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM portfolios").Scan(&currentCount); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to count existing portfolios", "error", err)
		utils.SendJSONError(w, "Failed to check portfolio limit", http.StatusInternalServerError)
		return
	}
	if currentCount >= MaxPortfolios {
		utils.SendJSONError(w, "Portfolio limit reached ("+strconv.Itoa(MaxPortfolios)+")", http.StatusForbidden)
		return
	}

	p := &models.Portfolio{
		ID:           uuid.New().String(),
		Name:         validation.SanitizeText(req.Name),
		Type:         portfolioType,
		BaseCurrency: validation.SanitizeText(req.BaseCurrency),
		Description:  validation.SanitizeText(req.Description),
	}
	if err := model.CreatePortfolio(database.DB, p); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to create portfolio", "error", err)
		utils.SendJSONError(w, "Failed to create portfolio (name must be unique)", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortfolio(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	err := model.DeletePortfolio(database.DB, portfolioID)
	if errors.Is(err, model.ErrPortfolioNotFound) {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to delete portfolio", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to delete portfolio", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetRecords returns the committed records of a portfolio, shaped per
// its type.
func (h *PortfolioHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortfolio(w, r)
	if !ok {
		return
	}
	records, err := h.fetchRecords(p)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to load records", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}
	payload := map[string]any{
		"portfolio_type": p.Type,
		"records":        records,
	}
	if etag, err := utils.GenerateETag(payload); err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// HandleGetImportHistory lists the committed uploads of a portfolio.
func (h *PortfolioHandler) HandleGetImportHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortfolio(w, r)
	if !ok {
		return
	}
	history, err := model.ListImportHistory(database.DB, p.ID)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to load import history", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve import history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// HandleGetNAV proxies the portfolio's records to the analytics service and
// returns the computed NAV history.
func (h *PortfolioHandler) HandleGetNAV(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortfolio(w, r)
	if !ok {
		return
	}
	records, err := h.fetchRecords(p)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to load records for NAV", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}
	nav, err := h.analyticsService.CalculateNAV(p, records)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "NAV calculation failed", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(nav)
}

// HandleGetIndicators proxies the portfolio's records to the analytics
// service and returns the computed performance indicators.
func (h *PortfolioHandler) HandleGetIndicators(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortfolio(w, r)
	if !ok {
		return
	}
	records, err := h.fetchRecords(p)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to load records for indicators", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}
	indicators, err := h.analyticsService.CalculateIndicators(p, records)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Indicator calculation failed", "portfolioID", p.ID, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(indicators)
}

func (h *PortfolioHandler) loadPortfolio(w http.ResponseWriter, r *http.Request) (*models.Portfolio, bool) {
	portfolioID := chi.URLParam(r, "id")
	p, err := model.GetPortfolioByID(database.DB, portfolioID)
	if errors.Is(err, model.ErrPortfolioNotFound) {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to load portfolio", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolio", http.StatusInternalServerError)
		return nil, false
	}
	return p, true
}

func (h *PortfolioHandler) fetchRecords(p *models.Portfolio) (any, error) {
	if p.Type == models.PortfolioTypeSnapshot {
		return model.ListPositions(database.DB, p.ID)
	}
	return model.ListTransactions(database.DB, p.ID)
}
