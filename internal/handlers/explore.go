package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cryptoai-assistant/web-ui/internal/models"
	"github.com/cryptoai-assistant/web-ui/internal/services"
)

type searchPageData struct {
	Query   string
	Results []models.Source
}

type analysisData struct {
	Kind    string
	Ticker  string
	Content template.HTML
}

// HandleSearch queries the knowledge base directly and renders the ranked sources. The search
// bypasses the chat transcript entirely; it is a read-only view into the retrieval layer.
func (m Main) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		m.logger.Error("Query is required")
		http.Error(w, "Query is required", http.StatusBadRequest)
		return
	}

	prefs, err := m.prefs.Preferences()
	if err != nil {
		m.logger.Error("Failed to load preferences", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	results, err := m.explorer.SearchKnowledgeBase(r.Context(), query, prefs.Collections, prefs.TopK)
	if err != nil {
		m.logger.Error("Knowledge base search failed",
			slog.String("query", query),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	data := searchPageData{
		Query:   query,
		Results: results,
	}
	if err := m.templates.ExecuteTemplate(w, "search_results", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleAnalyze runs one of the backend analysis endpoints and renders the result as markdown.
// It expects "kind" (trend or sentiment) and "ticker" form fields; trend additionally honors
// "timeframe" and sentiment honors "days".
func (m Main) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ticker := strings.ToUpper(r.FormValue("ticker"))
	if ticker == "" {
		m.logger.Error("Ticker is required")
		http.Error(w, "Ticker is required", http.StatusBadRequest)
		return
	}

	kind := r.FormValue("kind")

	var (
		res services.AnalysisResult
		err error
	)
	switch kind {
	case "trend":
		res, err = m.explorer.AnalyzePriceTrend(r.Context(), ticker, r.FormValue("timeframe"))
	case "sentiment":
		days, _ := strconv.Atoi(r.FormValue("days"))
		res, err = m.explorer.AnalyzeSentiment(r.Context(), ticker, days)
	default:
		m.logger.Error("Unknown analysis kind", slog.String("kind", kind))
		http.Error(w, "Unknown analysis kind", http.StatusBadRequest)
		return
	}
	if err != nil {
		m.logger.Error("Analysis failed",
			slog.String("kind", kind),
			slog.String("ticker", ticker),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	content, err := models.RenderContent(res.Analysis)
	if err != nil {
		m.logger.Error("Failed to render analysis", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := analysisData{Kind: kind, Ticker: ticker, Content: content}
	if err := m.templates.ExecuteTemplate(w, "analysis", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandlePreferences updates the stored request knobs. Fields left blank keep their current
// values.
func (m Main) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	prefs, err := m.prefs.Preferences()
	if err != nil {
		m.logger.Error("Failed to load preferences", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if v := r.FormValue("top_k"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil || topK < 1 {
			http.Error(w, "top_k must be a positive integer", http.StatusBadRequest)
			return
		}
		prefs.TopK = topK
	}
	if v := r.FormValue("temperature"); v != "" {
		temp, err := strconv.ParseFloat(v, 64)
		if err != nil || temp < 0 || temp > 1 {
			http.Error(w, "temperature must be within [0,1]", http.StatusBadRequest)
			return
		}
		prefs.Temperature = temp
	}
	if v := r.FormValue("collections"); v != "" {
		prefs.Collections = strings.Split(v, ",")
	}

	if err := m.prefs.SavePreferences(prefs); err != nil {
		m.logger.Error("Failed to save preferences", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
