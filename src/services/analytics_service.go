// backend/src/services/analytics_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/folioview/backend/src/config"
	"github.com/username/folioview/backend/src/logger"
	"github.com/username/folioview/backend/src/models"
)

// --- API Response Structs ---

type navResponseEntry struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type analyticsErrorResponse struct {
	Detail string `json:"detail"`
}

// --- Service Implementation ---

type analyticsServiceImpl struct {
	httpClient *http.Client
	baseURL    string
}

// NewAnalyticsService creates the client for the remote analytics service that
// computes NAV history and performance indicators from committed records.
func NewAnalyticsService() AnalyticsService {
	return &analyticsServiceImpl{
		httpClient: &http.Client{Timeout: config.Cfg.AnalyticsTimeout},
		baseURL:    config.Cfg.AnalyticsBaseURL,
	}
}

func (s *analyticsServiceImpl) CalculateNAV(portfolio *models.Portfolio, records any) ([]NAVPoint, error) {
	var entries []navResponseEntry
	if err := s.post("/calculate/nav", portfolio, records, &entries); err != nil {
		return nil, err
	}
	points := make([]NAVPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, NAVPoint{Date: e.Date, Value: e.Value})
	}
	return points, nil
}

func (s *analyticsServiceImpl) CalculateIndicators(portfolio *models.Portfolio, records any) (map[string]any, error) {
	var indicators map[string]any
	if err := s.post("/calculate/indicators", portfolio, records, &indicators); err != nil {
		return nil, err
	}
	return indicators, nil
}

// post sends the {portfolio, data} payload the analytics service expects and
// decodes the response into out.
func (s *analyticsServiceImpl) post(path string, portfolio *models.Portfolio, records any, out any) error {
	payload := map[string]any{
		"portfolio": portfolio,
		"data":      records,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics payload: %w", err)
	}

	url := s.baseURL + path
	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.L.Error("Analytics service request failed", "url", url, "error", err)
		return fmt.Errorf("analytics service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr analyticsErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		logger.L.Warn("Analytics service returned an error", "url", url, "status", resp.StatusCode, "detail", apiErr.Detail)
		if apiErr.Detail != "" {
			return fmt.Errorf("analytics service error (%d): %s", resp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("analytics service error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode analytics response: %w", err)
	}
	return nil
}
