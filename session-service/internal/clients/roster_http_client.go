package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	interfaces "solaris-server/shared/interfaces"
	"solaris-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.RosterClient = (*HTTPRosterClient)(nil)

// HTTPRosterClient ходит за составом сессии в ростер-сервис.
// Ответ никогда не кэшируется: разрешение отправителей и наборы целей
// обязаны считаться по актуальному составу.
type HTTPRosterClient struct {
	baseURL           string // например, "http://roster-service:8080"
	httpClient        *http.Client
	logger            *zap.Logger
	interServiceToken string
}

// NewHTTPRosterClient creates a new HTTP client for the roster service.
func NewHTTPRosterClient(baseURL string, interServiceToken string, logger *zap.Logger) *HTTPRosterClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &HTTPRosterClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		interServiceToken: interServiceToken,
		logger:            logger.Named("HTTPRosterClient"),
	}
}

// GetRoster implements interfaces.RosterClient.
func (c *HTTPRosterClient) GetRoster(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	log := c.logger.With(zap.String("session_id", sessionID.String()))
	log.Debug("Requesting session roster")

	endpointURL := fmt.Sprintf("%s/internal/sessions/%s/roster", c.baseURL, sessionID)

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL, nil)
	if err != nil {
		log.Error("Failed to create roster service request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request for roster service: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.interServiceToken != "" {
		req.Header.Set("X-Internal-Service-Token", c.interServiceToken)
	} else {
		c.logger.Warn("Inter-service token is not set for roster client, API call might fail")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute request to roster service", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to roster service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// продолжаем
	case http.StatusNotFound:
		return nil, models.ErrSessionNotFound
	default:
		log.Error("Roster service returned non-OK status", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("roster service returned status %d", resp.StatusCode)
	}

	var responsePayload struct {
		Data []models.Participant `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&responsePayload); err != nil {
		log.Error("Failed to decode roster service response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode roster service response: %w", err)
	}

	log.Debug("Roster received", zap.Int("participants", len(responsePayload.Data)))
	return responsePayload.Data, nil
}
