// Package icd is a client for the WHO ICD-11 API. It handles the
// client-credentials token flow against the WHO access management endpoint,
// caching the token until shortly before expiry, and exposes the flexisearch
// and entity endpoints used by the terminology gateway.
package icd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL  = "https://id.who.int"
	defaultTokenURL = "https://icdaccessmanagement.who.int/connect/token"
	tokenScope      = "icdapi_access"

	// Renew the token a minute early so in-flight requests never carry an
	// expired one.
	tokenSafetyMargin = 60 * time.Second
)

// Config holds the ICD client configuration.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the WHO ICD-11 API.
type Client struct {
	cfg  Config
	http *http.Client

	mu           sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

// NewClient creates an ICD-11 API client. Zero-value config fields fall back
// to the public WHO endpoints and a 30 second timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Entity is a single search hit or entity record from the ICD-11 API.
type Entity struct {
	ID         string `json:"id"`
	TheCode    string `json:"theCode"`
	Title      string `json:"title"`
	Definition string `json:"definition"`
}

// SearchResult is the response of the entity search endpoint.
type SearchResult struct {
	DestinationEntities []Entity `json:"destinationEntities"`
}

// token returns a valid access token, requesting a new one when the cached
// token is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpires) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {tokenScope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request icd access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("icd token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("icd token response missing access_token")
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	c.accessToken = tokenResp.AccessToken
	c.tokenExpires = time.Now().Add(time.Duration(expiresIn)*time.Second - tokenSafetyMargin)
	return c.accessToken, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	fullURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build icd request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("API-Version", "v2")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("icd api request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("icd api %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode icd response: %w", err)
	}
	return nil
}

// Search runs a flexisearch query against the ICD-11 foundation and returns
// flat result entities.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"q":                   {query},
		"useFlexisearch":      {"true"},
		"flatResults":         {"true"},
		"highlightingEnabled": {"false"},
		"maxList":             {strconv.Itoa(limit)},
	}

	var result SearchResult
	if err := c.get(ctx, "/icd/entity/search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEntity fetches the full record for a single ICD-11 entity. Both bare
// entity IDs and full entity URIs are accepted.
func (c *Client) GetEntity(ctx context.Context, entityID string) (*Entity, error) {
	if strings.HasPrefix(entityID, "http") {
		parts := strings.Split(entityID, "/")
		entityID = parts[len(parts)-1]
	}
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}

	var entity Entity
	if err := c.get(ctx, "/icd/entity/"+entityID, nil, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Ping checks that the ICD API is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, "cholera", 1)
	return err
}
