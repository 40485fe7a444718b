package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fresh-wallet-scout/internal/orchestrator"
	"fresh-wallet-scout/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.Status())
}

// handleScan starts a background run. The request context dies with
// the response, so the run gets a detached one.
func (s *Server) handleScan(c *gin.Context) {
	err := s.orch.Trigger(context.WithoutCancel(c.Request.Context()))
	switch {
	case errors.Is(err, orchestrator.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "scan started"})
	}
}

func (s *Server) handleResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wallets": s.orch.LastResults()})
}

func (s *Server) handleListSymbols(c *gin.Context) {
	symbols, err := s.watchlist.Symbols(c.Request.Context())
	if err != nil {
		s.log.Error("list symbols failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

type addSymbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (s *Server) handleAddSymbol(c *gin.Context) {
	var req addSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	err := s.watchlist.Add(c.Request.Context(), req.Symbol)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "symbol already watched"})
	case errors.Is(err, storage.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
	case err != nil:
		s.log.Error("add symbol failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update watchlist"})
	default:
		c.JSON(http.StatusCreated, gin.H{"symbol": req.Symbol})
	}
}

func (s *Server) handleRemoveSymbol(c *gin.Context) {
	symbol := c.Param("symbol")

	err := s.watchlist.Remove(c.Request.Context(), symbol)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not watched"})
	case err != nil:
		s.log.Error("remove symbol failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update watchlist"})
	default:
		c.JSON(http.StatusOK, gin.H{"symbol": symbol})
	}
}
