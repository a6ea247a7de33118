package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cryptoai-assistant/web-ui/internal/models"
)

// CryptoAI provides a typed client for the trading-assistant backend API. It is a stateless
// request/response translator: no retries, no caching, no local state beyond the connection
// settings.
type CryptoAI struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

// ChatResult is the backend's answer to a chat message: the generated response text and the
// retrieval evidence behind it.
type ChatResult struct {
	Response string          `json:"response"`
	Sources  []models.Source `json:"sources"`
}

type chatRequest struct {
	Message     string  `json:"message"`
	TopK        int     `json:"top_k"`
	Temperature float64 `json:"temperature"`
}

type searchResponse struct {
	Results []models.Source `json:"results"`
}

type analyzeTrendRequest struct {
	Ticker    string `json:"ticker"`
	Timeframe string `json:"timeframe"`
}

type analyzeSentimentRequest struct {
	Ticker string `json:"ticker"`
	Days   int    `json:"days"`
}

// AnalysisResult carries the text produced by one of the backend analysis endpoints.
type AnalysisResult struct {
	Analysis string `json:"analysis"`
}

// DefaultCollections is the knowledge partition set searched when the caller does not narrow
// the search.
var DefaultCollections = []string{"kline", "news", "open_interest", "analysis"}

// NewCryptoAI creates a new CryptoAI client for the backend reachable at baseURL. The base URL
// should not include the /api prefix; it is appended per request.
func NewCryptoAI(baseURL string, logger *slog.Logger) CryptoAI {
	return CryptoAI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "cryptoai")),
	}
}

// SendMessage posts a chat message and returns the assistant's complete answer together with
// its sources. The text must be non-empty, topK at least 1, and temperature within [0,1].
func (c CryptoAI) SendMessage(ctx context.Context, text string, topK int, temperature float64) (ChatResult, error) {
	if text == "" {
		return ChatResult{}, fmt.Errorf("message text is required")
	}
	if topK < 1 {
		return ChatResult{}, fmt.Errorf("top_k must be at least 1, got %d", topK)
	}
	if temperature < 0 || temperature > 1 {
		return ChatResult{}, fmt.Errorf("temperature must be within [0,1], got %g", temperature)
	}

	var res ChatResult
	err := c.postJSON(ctx, "/chat", chatRequest{
		Message:     text,
		TopK:        topK,
		Temperature: temperature,
	}, &res)
	if err != nil {
		return ChatResult{}, err
	}
	return res, nil
}

// ClearHistory asks the backend to drop its server-side conversation history.
func (c CryptoAI) ClearHistory(ctx context.Context) error {
	return c.postJSON(ctx, "/chat/clear", nil, nil)
}

// SearchKnowledgeBase queries the backend's vector store directly and returns the ranked
// sources. An empty collections slice searches the default partitions.
func (c CryptoAI) SearchKnowledgeBase(ctx context.Context, query string, collections []string, topK int) ([]models.Source, error) {
	if topK < 1 {
		return nil, fmt.Errorf("top_k must be at least 1, got %d", topK)
	}
	if len(collections) == 0 {
		collections = DefaultCollections
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("collections", strings.Join(collections, ","))
	params.Set("top_k", strconv.Itoa(topK))

	var res searchResponse
	if err := c.getJSON(ctx, "/chat/search", params, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// AnalyzePriceTrend runs the backend price-trend analysis for a ticker. An empty timeframe
// defaults to "recent".
func (c CryptoAI) AnalyzePriceTrend(ctx context.Context, ticker, timeframe string) (AnalysisResult, error) {
	if timeframe == "" {
		timeframe = "recent"
	}

	var res AnalysisResult
	err := c.postJSON(ctx, "/analyze/price-trend", analyzeTrendRequest{
		Ticker:    ticker,
		Timeframe: timeframe,
	}, &res)
	if err != nil {
		return AnalysisResult{}, err
	}
	return res, nil
}

// AnalyzeSentiment runs the backend news-sentiment analysis for a ticker over the last days
// days. Days of 0 or less defaults to 7.
func (c CryptoAI) AnalyzeSentiment(ctx context.Context, ticker string, days int) (AnalysisResult, error) {
	if days <= 0 {
		days = 7
	}

	var res AnalysisResult
	err := c.postJSON(ctx, "/analyze/sentiment", analyzeSentimentRequest{
		Ticker: ticker,
		Days:   days,
	}, &res)
	if err != nil {
		return AnalysisResult{}, err
	}
	return res, nil
}

func (c CryptoAI) postJSON(ctx context.Context, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		c.logger.Debug("Request Body", slog.String("path", path), slog.String("body", string(jsonBody)))
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api"+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// postQuery issues a POST whose parameters travel in the query string rather than the body,
// matching the backend's /predict and /vectordb/populate contracts.
func (c CryptoAI) postQuery(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + "/api" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	return c.do(req, out)
}

func (c CryptoAI) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + "/api" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	return c.do(req, out)
}

func (c CryptoAI) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return &ServerError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
