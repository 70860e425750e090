// Package mock serves a fixed stock table over the same contract as the
// real stock service.
package mock

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultTable is the stock the mock answers with when none is supplied.
var DefaultTable = map[string]int{
	"SKU-RED":  50,
	"SKU-VN":   7,
	"SKU-BLUE": 999,
	"SKU-BLK":  20,
}

type Server struct {
	log   *slog.Logger
	table map[string]int
}

func NewServer(log *slog.Logger, table map[string]int) *Server {
	if table == nil {
		table = DefaultTable
	}
	return &Server{log: log, table: table}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/stock", s.stock)
	return r
}

type stockReq struct {
	SKU string `json:"sku"`
}

type stockResp struct {
	SKU          string `json:"sku"`
	AvailableQty int    `json:"availableQty"`
}

func (s *Server) stock(w http.ResponseWriter, r *http.Request) {
	var req stockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	qty := s.table[req.SKU]
	s.log.Debug("stock lookup", "sku", req.SKU, "available_qty", qty)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stockResp{SKU: req.SKU, AvailableQty: qty})
}
