package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
)

type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
	logger  mylogger.Logger
}

func NewHTTPClient(baseURL string, logger mylogger.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (h *HTTPClient) DoRequest(ctx context.Context, method, path string, body, out any) error {
	time.Sleep(HTTPRequestDelay)

	var bodyBytes []byte
	var err error

	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	h.logger.Debug("http exchange", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (h *HTTPClient) Login(ctx context.Context, email, password string) (dto.AuthResponseDto, error) {
	var res dto.AuthResponseDto
	err := h.DoRequest(ctx, http.MethodPost, "/auth/login", dto.LoginRequestDto{
		Role:     string(model.RoleDriver),
		Email:    email,
		Password: password,
	}, &res)
	if err != nil {
		return dto.AuthResponseDto{}, err
	}
	h.token = res.Token
	return res, nil
}

func (h *HTTPClient) SetAvailable(ctx context.Context, available bool) error {
	return h.DoRequest(ctx, http.MethodPost, "/drivers/me/availability", dto.AvailabilityRequestDto{IsAvailable: &available}, nil)
}

func (h *HTTPClient) PendingRides(ctx context.Context) ([]model.Rides, error) {
	var rides []model.Rides
	if err := h.DoRequest(ctx, http.MethodGet, "/rides/pending", nil, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

func (h *HTTPClient) SubmitQuote(ctx context.Context, rideId string, price float64, at Location) error {
	lat, lng := at.Latitude, at.Longitude
	return h.DoRequest(ctx, http.MethodPost, "/rides/"+rideId+"/quotes", dto.QuoteRequestDto{
		Price: &price,
		DriverLocation: dto.LocationDto{
			Latitude:    &lat,
			Longitude:   &lng,
			Description: "simulator",
		},
	}, nil)
}
