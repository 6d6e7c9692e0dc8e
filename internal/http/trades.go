package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradeboard/internal/app"
	"tradeboard/internal/domain"
)

type openTradeRequest struct {
	UserID     string                 `json:"userId"`
	Broker     string                 `json:"broker"`
	Symbol     string                 `json:"symbol"`
	AssetType  string                 `json:"assetType"`
	Side       string                 `json:"side"`
	Quantity   float64                `json:"quantity"`
	Multiplier float64                `json:"multiplier"`
	EntryPrice float64                `json:"entryPrice"`
	Fees       float64                `json:"fees"`
	OpenedAt   *time.Time             `json:"openedAt"`
	Meta       map[string]interface{} `json:"meta"`
}

type openTradeResponse struct {
	OK      bool  `json:"ok"`
	TradeID int64 `json:"tradeId"`
}

func (s *Server) openTrade(cn *gin.Context) {
	var req openTradeRequest
	if err := cn.ShouldBindJSON(&req); err != nil {
		cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: err.Error()})
		return
	}

	openedAt := time.Time{}
	if req.OpenedAt != nil {
		openedAt = *req.OpenedAt
	}

	id, err := s.Service.OpenTrade(cn.Request.Context(), app.OpenTradeRequest{
		UserID:     req.UserID,
		Broker:     req.Broker,
		Symbol:     req.Symbol,
		AssetType:  req.AssetType,
		Side:       domain.Side(req.Side),
		Quantity:   req.Quantity,
		Multiplier: req.Multiplier,
		EntryPrice: req.EntryPrice,
		Fees:       req.Fees,
		OpenedAt:   openedAt,
		Meta:       req.Meta,
	})
	if err != nil {
		s.abortWithError(cn, err)
		return
	}
	cn.JSON(http.StatusOK, openTradeResponse{OK: true, TradeID: id})
}

type closeTradeRequest struct {
	TradeID   int64      `json:"tradeId"`
	ExitPrice *float64   `json:"exitPrice"`
	Fees      float64    `json:"fees"`
	ClosedAt  *time.Time `json:"closedAt"`
}

type closeTradeResponse struct {
	OK        bool    `json:"ok"`
	PnL       float64 `json:"pnl"`
	ReturnPct float64 `json:"returnPct"`
}

func (s *Server) closeTrade(cn *gin.Context) {
	var req closeTradeRequest
	if err := cn.ShouldBindJSON(&req); err != nil {
		cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: err.Error()})
		return
	}

	closedAt := time.Time{}
	if req.ClosedAt != nil {
		closedAt = *req.ClosedAt
	}

	result, err := s.Service.CloseTrade(cn.Request.Context(), app.CloseTradeRequest{
		TradeID:   req.TradeID,
		ExitPrice: req.ExitPrice,
		Fees:      req.Fees,
		ClosedAt:  closedAt,
	})
	if err != nil {
		s.abortWithError(cn, err)
		return
	}
	cn.JSON(http.StatusOK, closeTradeResponse{OK: true, PnL: result.PnL, ReturnPct: result.ReturnPct})
}
