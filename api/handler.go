package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amaurydelille/SWP391BE/internal/checkout"
)

// paymentHandler holds the checkout service and implements the HTTP handlers
// for payment, deposit, cart and reporting operations.
type paymentHandler struct {
	service *checkout.Service
	logger  *zap.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *checkout.Service, logger *zap.Logger) *paymentHandler {
	return &paymentHandler{
		service: service,
		logger:  logger,
	}
}

// handlePayment handles POST /api/payment/:userId, settling the user's cart.
func (h *paymentHandler) handlePayment(ctx *gin.Context) {
	buyerID := strings.TrimSpace(ctx.Param("userId"))

	result, err := h.service.SettleCart(ctx.Request.Context(), buyerID)
	if err != nil {
		h.logger.Error("settlement failed", zap.String("buyer_id", buyerID), zap.Error(err))
		switch {
		case errors.Is(err, checkout.ErrInsufficientFunds):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "user does not have enough money to purchase"})
		case errors.Is(err, checkout.ErrInvalidBalance):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid user balance"})
		case errors.Is(err, checkout.ErrAccountNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "payment was not made"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Payment made successfully",
		"totalAmount": result.Total,
	})
}

// handleDeposit handles POST /api/deposit/:userId.
func (h *paymentHandler) handleDeposit(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("userId"))

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid deposit amount"})
		return
	}

	if err := h.service.Deposit(ctx.Request.Context(), accountID, req.Amount); err != nil {
		h.logger.Error("deposit failed", zap.String("account_id", accountID), zap.Error(err))
		switch {
		case errors.Is(err, checkout.ErrInvalidAmount):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid deposit amount"})
		case errors.Is(err, checkout.ErrInvalidBalance):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid user balance"})
		case errors.Is(err, checkout.ErrAccountNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "error updating balance"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Deposit successful"})
}

// handleAddToCart handles POST /api/users/:userId/cart/:artworkId.
func (h *paymentHandler) handleAddToCart(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("userId"))
	artworkID := strings.TrimSpace(ctx.Param("artworkId"))

	if err := h.service.AddToCart(ctx.Request.Context(), accountID, artworkID); err != nil {
		switch {
		case errors.Is(err, checkout.ErrAlreadyBought):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "you cannot add to cart an artwork that you already bought"})
		case errors.Is(err, checkout.ErrAlreadyInCart):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "artwork already exists in shopping cart"})
		case errors.Is(err, checkout.ErrArtworkNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": "artwork not found"})
		default:
			h.logger.Error("failed to add to cart",
				zap.String("account_id", accountID), zap.String("artwork_id", artworkID), zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "error adding the artwork to your cart"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Artwork added to the cart successfully"})
}

// handleGetCart handles GET /api/users/:userId/cart.
func (h *paymentHandler) handleGetCart(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("userId"))

	items, err := h.service.CartContents(ctx.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.String("account_id", accountID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "error loading the cart"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"cartArtworks": items})
}

// handleRemoveFromCart handles DELETE /api/users/:userId/cart/:artworkId.
func (h *paymentHandler) handleRemoveFromCart(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("userId"))
	artworkID := strings.TrimSpace(ctx.Param("artworkId"))

	if err := h.service.RemoveFromCart(ctx.Request.Context(), accountID, artworkID); err != nil {
		h.logger.Error("failed to remove from cart",
			zap.String("account_id", accountID), zap.String("artwork_id", artworkID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "error deleting artwork from the cart"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Artwork deleted from the cart successfully"})
}

// handleGetPurchases handles GET /api/transactions/:userId.
func (h *paymentHandler) handleGetPurchases(ctx *gin.Context) {
	buyerID := strings.TrimSpace(ctx.Param("userId"))

	records, err := h.service.Purchases(ctx.Request.Context(), buyerID)
	if err != nil {
		h.logger.Error("failed to load purchases", zap.String("buyer_id", buyerID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "could not get user transactions"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transactions": records})
}

// handlePaymentHistory handles GET /api/payment-history/:userId.
func (h *paymentHandler) handlePaymentHistory(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("userId"))
	h.respondHistory(ctx, "Payment history not found", func() ([]checkout.LedgerEntry, error) {
		return h.service.PaymentHistory(ctx.Request.Context(), accountID)
	})
}

// handleCustomerOrderHistory handles GET /api/customer-order-history/:creatorId.
func (h *paymentHandler) handleCustomerOrderHistory(ctx *gin.Context) {
	creatorID := strings.TrimSpace(ctx.Param("creatorId"))
	h.respondHistory(ctx, "Customer order history not found", func() ([]checkout.LedgerEntry, error) {
		return h.service.CreatorOrderHistory(ctx.Request.Context(), creatorID)
	})
}

// handleAdminProfitHistory handles GET /api/admin-profit-history/:adminId.
func (h *paymentHandler) handleAdminProfitHistory(ctx *gin.Context) {
	adminID := strings.TrimSpace(ctx.Param("adminId"))
	h.respondHistory(ctx, "Admin profit history not found", func() ([]checkout.LedgerEntry, error) {
		return h.service.AdminProfitHistory(ctx.Request.Context(), adminID)
	})
}

func (h *paymentHandler) respondHistory(ctx *gin.Context, emptyMessage string, load func() ([]checkout.LedgerEntry, error)) {
	entries, err := load()
	if err != nil {
		h.logger.Error("failed to load ledger entries", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "could not get history"})
		return
	}
	if len(entries) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"message": emptyMessage})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": entries})
}
