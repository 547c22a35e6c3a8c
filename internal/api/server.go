// Package api is the thin HTTP surface over the oracle and the symbol
// cache. The /trend, /lower-limit, /upper-limit, and /query endpoints call
// the oracle live; /getSymbolData is the read-through cache path.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/cache"
	"CrashSentinel/internal/extract"
	"CrashSentinel/internal/model"
	"CrashSentinel/internal/oracle"
	"CrashSentinel/internal/recorder"
)

const (
	serviceName = "Market Crash Expert API"
	version     = "1.0.0"
)

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine   *gin.Engine
	coord    *cache.Coordinator
	oracle   oracle.Oracle
	recorder recorder.Recorder
	logger   zerolog.Logger
}

// NewServer builds the router with all routes registered.
func NewServer(coord *cache.Coordinator, orc oracle.Oracle, rec recorder.Recorder) *Server {
	s := &Server{
		engine:   gin.New(),
		coord:    coord,
		oracle:   orc,
		recorder: rec,
		logger:   log.With().Str("component", "api").Logger(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(corsMiddleware())

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/trend", s.handleTrend)
	s.engine.GET("/lower-limit", s.handleLowerLimit)
	s.engine.GET("/upper-limit", s.handleUpperLimit)
	s.engine.GET("/getSymbolData", s.handleGetSymbolData)
	s.engine.GET("/getAllSymbols", s.handleGetAllSymbols)
	s.engine.POST("/addSymbol", s.handleAddSymbol)
	s.engine.POST("/query", s.handleQuery)

	return s
}

// Handler exposes the router for the http.Server in main and for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// querySymbol reads the symbol parameter, defaulting and normalizing it.
func querySymbol(c *gin.Context) string {
	symbol := model.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		symbol = model.DefaultSymbol
	}
	return symbol
}

func (s *Server) handleRoot(c *gin.Context) {
	info := gin.H{
		"name":          serviceName,
		"version":       version,
		"description":   "Expert in market trends and strong support/resistance levels",
		"defaultSymbol": model.DefaultSymbol,
		"endpoints": gin.H{
			"GET /trend":         "Get current market trend for this week",
			"GET /lower-limit":   "Get strong lower crash limit (support) for this week",
			"GET /upper-limit":   "Get strong upper crash limit (resistance) for this week",
			"GET /getSymbolData": "Get all analysis data for a symbol (cached, updates hourly)",
			"GET /getAllSymbols": "Get the whole symbol cache",
			"POST /addSymbol":    "Start tracking a new symbol",
			"POST /query":        "Ask any question about market analysis",
		},
	}
	if rec, ok := s.coord.Store().GetSymbol(model.DefaultSymbol); ok {
		if ts, parsed := rec.Time(); parsed {
			info["cacheAge"] = humanize.Time(ts)
		}
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

// handleTrend runs a live trend analysis, bypassing the cache.
func (s *Server) handleTrend(c *gin.Context) {
	symbol := querySymbol(c)
	raw, err := s.oracle.Trend(c.Request.Context(), symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("trend analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error analyzing trend: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trend":       extract.Trend(raw),
		"rawResponse": raw,
	})
}

func (s *Server) handleLowerLimit(c *gin.Context) {
	symbol := querySymbol(c)
	raw, err := s.oracle.LowerLimit(c.Request.Context(), symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("lower limit analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error analyzing lower limit: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":       extract.Limit(raw),
		"rawResponse": raw,
	})
}

func (s *Server) handleUpperLimit(c *gin.Context) {
	symbol := querySymbol(c)
	raw, err := s.oracle.UpperLimit(c.Request.Context(), symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("upper limit analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error analyzing upper limit: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":       extract.Limit(raw),
		"rawResponse": raw,
	})
}

// handleGetSymbolData serves the read-through cache path.
func (s *Server) handleGetSymbolData(c *gin.Context) {
	symbol := querySymbol(c)
	rec, err := s.coord.GetOrRefresh(c.Request.Context(), symbol)
	if err != nil || rec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache data unavailable"})
		return
	}

	resp := gin.H{
		"symbol":     rec.Symbol,
		"trend":      rec.Trend,
		"lowerLimit": rec.LowerLimit,
		"upperLimit": rec.UpperLimit,
		"timestamp":  rec.Timestamp,
	}
	if ts, ok := rec.Time(); ok {
		resp["cacheAgeMinutes"] = int(time.Since(ts).Minutes())
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetAllSymbols returns the cache document verbatim, not filtered by
// validity.
func (s *Server) handleGetAllSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, s.coord.ListAll())
}

// handleAddSymbol starts tracking a symbol with an unconditional refresh.
func (s *Server) handleAddSymbol(c *gin.Context) {
	symbol := querySymbol(c)
	rec, err := s.coord.AddSymbol(c.Request.Context(), symbol)
	if err != nil || rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error adding symbol"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type queryRequest struct {
	Query  string `json:"query"`
	Symbol string `json:"symbol"`
}

// handleQuery bypasses the cache and always calls the oracle live.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query cannot be empty"})
		return
	}
	symbol := model.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		symbol = model.DefaultSymbol
	}

	start := time.Now()
	answer, err := s.oracle.General(c.Request.Context(), symbol, req.Query)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error processing query: " + err.Error()})
		return
	}

	if err := s.recorder.RecordQuery(&recorder.QueryEvent{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Query:     req.Query,
		AnswerLen: len(answer),
		Duration:  time.Since(start),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("record query event failed")
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
