package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// The data endpoints below are stateless pass-throughs: the backend payloads are forwarded to
// the caller as raw JSON with no reshaping beyond parameter encoding. Optional parameters left
// at their zero value are omitted from the request entirely.

// History fetches the historical price series, optionally bounded by start and end dates in
// YYYY-MM-DD form.
func (c CryptoAI) History(ctx context.Context, start, end string) (json.RawMessage, error) {
	params := url.Values{}
	if start != "" {
		params.Set("start", start)
	}
	if end != "" {
		params.Set("end", end)
	}

	var res json.RawMessage
	if err := c.getJSON(ctx, "/history", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// HistoryMeta fetches metadata about the available historical data.
func (c CryptoAI) HistoryMeta(ctx context.Context) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.getJSON(ctx, "/history/meta", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Indicators fetches technical indicators; params are forwarded verbatim as query parameters.
func (c CryptoAI) Indicators(ctx context.Context, params url.Values) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.getJSON(ctx, "/indicators", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// News fetches a page of news items. Days, start and end are optional filters; page and limit
// of 0 or less fall back to the backend defaults of 1 and 20.
func (c CryptoAI) News(ctx context.Context, days int, start, end string, page, limit int) (json.RawMessage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	if start != "" {
		params.Set("start", start)
	}
	if end != "" {
		params.Set("end", end)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var res json.RawMessage
	if err := c.getJSON(ctx, "/news", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Models lists the prediction models available on the backend.
func (c CryptoAI) Models(ctx context.Context) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.getJSON(ctx, "/models", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Predict runs a prediction with the named model. Hours of 0 or less defaults to 5; start and
// end are optional bounds.
func (c CryptoAI) Predict(ctx context.Context, modelName string, hours int, start, end string) (json.RawMessage, error) {
	if hours <= 0 {
		hours = 5
	}

	params := url.Values{}
	params.Set("model_name", modelName)
	params.Set("prediction_hours", strconv.Itoa(hours))
	if start != "" {
		params.Set("start", start)
	}
	if end != "" {
		params.Set("end", end)
	}

	var res json.RawMessage
	if err := c.postQuery(ctx, "/predict", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// PopulateVectorDB asks the backend to (re)index the last days days of a ticker's data into
// its vector store. An empty ticker defaults to BTCUSDT and days of 0 or less to 30.
func (c CryptoAI) PopulateVectorDB(ctx context.Context, ticker string, days int) (json.RawMessage, error) {
	if ticker == "" {
		ticker = "BTCUSDT"
	}
	if days <= 0 {
		days = 30
	}

	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("days", strconv.Itoa(days))

	var res json.RawMessage
	if err := c.postQuery(ctx, "/vectordb/populate", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}
