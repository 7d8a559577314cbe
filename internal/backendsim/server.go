// Package backendsim is an in-memory stand-in for the trading backend. It serves
// the same REST surface the dashboard polls, for local demos and integration tests.
package backendsim

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "backendsim")

type Config struct {
	StartingCash decimal.Decimal
	Symbols      map[string]decimal.Decimal // symbol -> opening price
	Seed         uint64
	TickInterval time.Duration // price random walk; 0 disables Run
}

// DefaultConfig five instruments, 100k cash.
func DefaultConfig() Config {
	return Config{
		StartingCash: decimal.NewFromInt(100000),
		Symbols: map[string]decimal.Decimal{
			"EUR_USD": decimal.RequireFromString("1.0850"),
			"GBP_USD": decimal.RequireFromString("1.2650"),
			"USD_JPY": decimal.RequireFromString("151.20"),
			"BTC_USD": decimal.RequireFromString("64000"),
			"ETH_USD": decimal.RequireFromString("3100"),
		},
		Seed:         1,
		TickInterval: 2 * time.Second,
	}
}

type fault struct {
	status  int
	message string
	body    any // non-nil: written verbatim with 200
}

type Server struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	rnd     *rand.Rand
	market  *market
	book    *book
	bots    map[string]*bot
	faults  map[string][]fault
	hits    map[string]int
	lastReq map[string]json.RawMessage
}

func New(cfg Config) *Server {
	if cfg.StartingCash.IsZero() {
		cfg.StartingCash = DefaultConfig().StartingCash
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultConfig().Symbols
	}
	s := &Server{
		cfg:     cfg,
		now:     time.Now,
		rnd:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		faults:  map[string][]fault{},
		hits:    map[string]int{},
		lastReq: map[string]json.RawMessage{},
	}
	s.market = newMarket(cfg.Symbols)
	s.book = newBook(cfg.StartingCash)
	s.bots = defaultBots(s.market.symbols())
	return s
}

// Router gin engine with every endpoint the dashboard uses.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.recordHits())
	r.Use(s.injectFaults())

	r.GET("/healthz", s.wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	r.GET("/trading-status", s.wrap(s.handleTradingStatus))
	r.POST("/execute-trade", s.wrap(s.handleExecuteTrade))
	r.POST("/close-position/:symbol", s.wrap(s.handleClosePosition))

	api := r.Group("/api")
	api.GET("/positions", s.wrap(s.handlePositions))
	api.GET("/market-intelligence", s.wrap(s.handleMarketIntelligence))
	api.GET("/market-news/:topic", s.wrap(s.handleMarketNews))

	bots := api.Group("/bots")
	bots.GET("", s.wrap(s.handleBotsList))
	botID := bots.Group("/:botID")
	botID.GET("/status", s.wrap(s.handleBotStatus))
	botID.POST("/toggle", s.wrap(s.handleBotToggle))
	botID.PUT("/parameters", s.wrap(s.handleBotParameters))

	return r
}

// Run random-walks prices until ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.cfg.TickInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick moves every price once.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market.step(s.rnd)
	for _, b := range s.bots {
		if b.running {
			b.observe(s.rnd, s.now())
		}
	}
}

// SetPrice pins a price; used by tests.
func (s *Server) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market.set(symbol, price)
}

// FailNext makes the next request to path fail with status and message.
// status 200 produces {"status":"error"} on a 200.
func (s *Server) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], fault{status: status, message: message})
}

// RespondNext makes the next request on path answer 200 with body instead of reaching the handler.
func (s *Server) RespondNext(path string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], fault{status: http.StatusOK, body: body})
}

// Hits counts requests per path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastBody is the last JSON body received on path.
func (s *Server) LastBody(path string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq[path]
}

func (s *Server) recordHits() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		s.mu.Lock()
		s.hits[path]++
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		s.mu.Lock()
		queue := s.faults[path]
		var f *fault
		if len(queue) > 0 {
			f = &queue[0]
			s.faults[path] = queue[1:]
		}
		s.mu.Unlock()
		if f == nil {
			c.Next()
			return
		}
		log.Debugf("injected fault on %s: %d %s", path, f.status, f.message)
		switch {
		case f.body != nil:
			writeJSON(c.Writer, http.StatusOK, f.body)
		case f.status == http.StatusOK:
			writeJSON(c.Writer, http.StatusOK, map[string]any{"status": "error", "message": f.message})
		default:
			writeError(c.Writer, f.status, f.message)
		}
		c.Abort()
	}
}

type paramsKeyType string

const paramsKey paramsKeyType = "backendsim_path_params"

// wrap adapts net/http handlers to gin, injecting path params into request context.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := map[string]string{}
		for _, p := range c.Params {
			m[p.Key] = p.Value
		}
		ctx := context.WithValue(c.Request.Context(), paramsKey, m)
		c.Request = c.Request.WithContext(ctx)
		h(c.Writer, c.Request)
	}
}

func pathParam(r *http.Request, key string) string {
	m, _ := r.Context().Value(paramsKey).(map[string]string)
	return strings.TrimSpace(m[key])
}

func (s *Server) decodeBody(r *http.Request, out any) error {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastReq[r.URL.Path] = raw
	s.mu.Unlock()
	return json.Unmarshal(raw, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": message})
}
