package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

// defaultHistoryDays is the symbol history window when from is omitted
const defaultHistoryDays = 90

// ScoreHandler serves the scored record ledger
// ⭐ SSOT: 점수 조회 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	reader contracts.ScoreReader
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(reader contracts.ScoreReader, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		reader: reader,
		logger: log,
	}
}

// DateResponse is one evaluation date's score table
type DateResponse struct {
	Date    string                    `json:"date"`
	Count   int                       `json:"count"`
	Records []*contracts.ScoredRecord `json:"records"`
}

// HistoryResponse is one security's score history
type HistoryResponse struct {
	Symbol  string                    `json:"symbol"`
	From    string                    `json:"from"`
	To      string                    `json:"to"`
	Count   int                       `json:"count"`
	Records []*contracts.ScoredRecord `json:"records"`
}

// GetLatest returns the most recent evaluation date's records
// GET /api/scores/latest?signal=BUY|SELL|NEUTRAL
func (h *ScoreHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.reader.LatestDate(r.Context())
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No scores published yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest score date")
		respondError(w, http.StatusInternalServerError, "Failed to get latest score date")
		return
	}

	h.respondDate(w, r, latest, false)
}

// GetByDate returns every record of one evaluation date
// GET /api/scores/{date}?signal=BUY|SELL|NEUTRAL
func (h *ScoreHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := contracts.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	h.respondDate(w, r, date, false)
}

// GetRebalance returns the records to trade on a date, highest priority first
// GET /api/scores/{date}/rebalance
func (h *ScoreHandler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	date, err := contracts.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	h.respondDate(w, r, date, true)
}

// GetSecurityHistory returns one security's records in a date range
// GET /api/securities/{symbol}/scores?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ScoreHandler) GetSecurityHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	query := r.URL.Query()

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if s := query.Get("to"); s != "" {
		d, err := contracts.ParseDate(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = d
	}

	from := to.AddDate(0, 0, -defaultHistoryDays)
	if s := query.Get("from"); s != "" {
		d, err := contracts.ParseDate(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = d
	}

	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	records, err := h.reader.GetBySymbol(r.Context(), symbol, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get score history")
		respondError(w, http.StatusInternalServerError, "Failed to get score history")
		return
	}
	if records == nil {
		records = []*contracts.ScoredRecord{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		Symbol:  symbol,
		From:    contracts.FormatDate(from),
		To:      contracts.FormatDate(to),
		Count:   len(records),
		Records: records,
	})
}

func (h *ScoreHandler) respondDate(w http.ResponseWriter, r *http.Request, date time.Time, rebalanceOnly bool) {
	records, err := h.reader.GetByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).WithField("date", contracts.FormatDate(date)).Error("Failed to get scores")
		respondError(w, http.StatusInternalServerError, "Failed to get scores")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "No scores for "+contracts.FormatDate(date))
		return
	}

	if signal := strings.ToUpper(r.URL.Query().Get("signal")); signal != "" {
		records = filter(records, func(rec *contracts.ScoredRecord) bool {
			return string(rec.Signal) == signal
		})
	}

	if rebalanceOnly {
		records = filter(records, func(rec *contracts.ScoredRecord) bool {
			return rec.ToRebalance == 1
		})
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].RebalancePriority != records[j].RebalancePriority {
				return records[i].RebalancePriority < records[j].RebalancePriority
			}
			return records[i].Symbol < records[j].Symbol
		})
	}

	respondJSON(w, http.StatusOK, DateResponse{
		Date:    contracts.FormatDate(date),
		Count:   len(records),
		Records: records,
	})
}

func filter(records []*contracts.ScoredRecord, keep func(*contracts.ScoredRecord) bool) []*contracts.ScoredRecord {
	out := make([]*contracts.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
