package backendsim

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betbot/botdash/internal/domain"
)

type tradingStatusResponse struct {
	Account      domain.Account      `json:"account"`
	Positions    domain.PositionMap  `json:"positions"`
	MarketPrices domain.MarketPrices `json:"market_prices"`
	TradingStats domain.TradingStats `json:"trading_stats"`
	MarketStatus domain.MarketStatus `json:"market_status"`
}

func (s *Server) handleTradingStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	writeJSON(w, http.StatusOK, tradingStatusResponse{
		Account:      s.book.account(s.market),
		Positions:    s.book.positions(s.market),
		MarketPrices: s.market.prices(now.UTC().Format(time.RFC3339)),
		TradingStats: s.book.stats(),
		MarketStatus: domain.MarketStatus{IsMarketOpen: marketOpen(now), ActiveSymbols: s.market.symbols()},
	})
}

// marketOpen FX 周一到周五全天开盘
func marketOpen(at time.Time) bool {
	wd := at.UTC().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    domain.StatusSuccess,
		"positions": s.book.positions(s.market),
	})
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req domain.TradeRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Symbol = strings.TrimSpace(req.Symbol)
	if err := req.Side.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.market.price(req.Symbol)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown symbol %q", req.Symbol))
		return
	}
	qty := decimal.NewFromFloat(req.Quantity)
	var err error
	if req.Side == domain.SideBuy {
		err = s.book.buy(req.Symbol, qty, price)
	} else {
		err = s.book.sell(req.Symbol, qty, price)
	}
	if err != nil {
		s.writeTradeError(w, err)
		return
	}
	orderID := uuid.NewString()
	log.Infof("filled %s %s x%s @ %s (%s)", req.Side, req.Symbol, qty, price, orderID)
	writeJSON(w, http.StatusOK, domain.OrderResult{Status: domain.StatusSuccess, OrderID: orderID})
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.market.price(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown symbol %q", symbol))
		return
	}
	if err := s.book.close(symbol, price); err != nil {
		s.writeTradeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.OrderResult{Status: domain.StatusSuccess, OrderID: uuid.NewString()})
}

func (s *Server) writeTradeError(w http.ResponseWriter, err error) {
	var te *tradeError
	if errors.As(err, &te) {
		writeError(w, te.status, te.message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleBotsList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.BotDescriptor, len(s.bots))
	for id, b := range s.bots {
		out[id] = b.descriptor()
	}
	writeJSON(w, http.StatusOK, map[string]any{"bots": out})
}

func (s *Server) lookupBot(w http.ResponseWriter, r *http.Request) (*bot, bool) {
	id := pathParam(r, "botID")
	b, ok := s.bots[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("bot %s not found", id))
	}
	return b, ok
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.lookupBot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": domain.StatusSuccess, "data": b.status()})
}

func (s *Server) handleBotToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action domain.BotAction `json:"action"`
	}
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.lookupBot(w, r)
	if !ok {
		return
	}
	switch req.Action {
	case domain.ActionStart:
		b.running = true
		b.note(s.now(), "bot started")
	case domain.ActionStop:
		b.running = false
		b.note(s.now(), "bot stopped")
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid action %q", req.Action))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": domain.StatusSuccess, "running": b.running})
}

// handleBotParameters 整体替换参数对象
func (s *Server) handleBotParameters(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	if err := s.decodeBody(r, &params); err != nil || params == nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.lookupBot(w, r)
	if !ok {
		return
	}
	if sym, ok := params[domain.ParamSymbol].(string); ok {
		if _, known := s.market.price(sym); !known {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown symbol %q", sym))
			return
		}
	}
	b.parameters = params
	b.note(s.now(), "parameters updated")
	writeJSON(w, http.StatusOK, map[string]any{"status": domain.StatusSuccess, "parameters": params})
}

func (s *Server) handleMarketIntelligence(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.intelligence(s.now()))
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	topic := pathParam(r, "topic")

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"topic": topic, "articles": s.news(topic, s.now())})
}
