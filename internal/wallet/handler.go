package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coinvault/internal/api"
	"coinvault/internal/asset"
	"coinvault/internal/auth"
	"coinvault/internal/idempotency"
	"coinvault/internal/item"
	"coinvault/internal/ledger"
	"coinvault/internal/logger"
)

type Handler struct {
	service Service
	journal *ledger.Repository
}

func NewHandler(service Service, journal *ledger.Repository) *Handler {
	return &Handler{service: service, journal: journal}
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type BonusRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

type ConvertRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// @Summary      Get all balances for a user
// @Tags         wallet
// @Produce      json
// @Param        userID path int true "User ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /wallet/{userID}/balance [get]
func (h *Handler) GetBalances(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}

	balances, err := h.service.Balances(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no wallets found for this user"})
			return
		}
		logger.Errorf("failed to load balances for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load balances"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"balances": balances,
	})
}

// @Summary      Get one asset balance for a user
// @Tags         wallet
// @Produce      json
// @Param        userID path int true "User ID"
// @Param        assetID path int true "Asset ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /wallet/{userID}/balance/{assetID} [get]
func (h *Handler) GetAssetBalance(c *gin.Context) {
	userID, err1 := strconv.Atoi(c.Param("userID"))
	assetID, err2 := strconv.Atoi(c.Param("assetID"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid path parameters"})
		return
	}

	balance, err := h.service.AssetBalance(c.Request.Context(), userID, assetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// @Summary      Credit a user from the treasury (operator top-up)
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        userID path int true "User ID"
// @Param        assetID path int true "Asset ID"
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Param        request body AmountRequest true "Amount"
// @Success      200 {object} api.TransferResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/wallet/{userID}/topup/{assetID} [post]
func (h *Handler) TopUp(c *gin.Context) {
	h.mint(c, func(txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error) {
		return h.service.TopUp(c.Request.Context(), txID, userID, assetID, amount)
	}, "top-up successful")
}

// @Summary      Credit a manual bonus from the treasury
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        userID path int true "User ID"
// @Param        assetID path int true "Asset ID"
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Param        request body BonusRequest true "Amount and reason"
// @Success      200 {object} api.TransferResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/wallet/{userID}/bonus/{assetID} [post]
func (h *Handler) Bonus(c *gin.Context) {
	h.mint(c, func(txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error) {
		return h.service.Bonus(c.Request.Context(), txID, userID, assetID, amount)
	}, "bonus credited")
}

func (h *Handler) mint(c *gin.Context, fn func(txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error), message string) {
	userID, err1 := strconv.Atoi(c.Param("userID"))
	assetID, err2 := strconv.Atoi(c.Param("assetID"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid path parameters"})
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount is required"})
		return
	}

	entry, err := fn(idempotency.TxID(c), userID, assetID, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.TransferResponse{Message: message, TxID: entry.TxID})
}

// @Summary      Purchase an item with Gold
// @Tags         wallet
// @Produce      json
// @Param        itemID path int true "Item ID"
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /wallet/spend/{itemID} [post]
func (h *Handler) Spend(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	itemID, err := strconv.Atoi(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid item id"})
		return
	}

	entry, price, err := h.service.Purchase(c.Request.Context(), idempotency.TxID(c), userID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "item purchased successfully",
		"item_id": itemID,
		"price":   price,
		"tx_id":   entry.TxID,
	})
}

// ConvertSilverToGold and ConvertGoldToDiamond are the two supported
// conversion paths; both use the fixed ratio.

// @Summary      Convert Silver to Gold
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Param        request body ConvertRequest true "Silver amount, multiple of 50"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /wallet/convert/silver-gold [post]
func (h *Handler) ConvertSilverToGold(c *gin.Context) {
	h.convert(c, asset.Silver, asset.Gold, "gold_received")
}

// @Summary      Convert Gold to Diamond
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Param        request body ConvertRequest true "Gold amount, multiple of 50"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /wallet/convert/gold-diamond [post]
func (h *Handler) ConvertGoldToDiamond(c *gin.Context) {
	h.convert(c, asset.Gold, asset.Diamond, "diamonds_received")
}

func (h *Handler) convert(c *gin.Context, from, to, receivedKey string) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount is required"})
		return
	}

	entry, received, err := h.service.Convert(c.Request.Context(), idempotency.TxID(c), userID, from, to, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   from + " converted to " + to,
		receivedKey: received,
		"tx_id":     entry.TxID,
	})
}

// @Summary      List the caller's journal entries
// @Tags         wallet
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} ledger.Entry
// @Security     BearerAuth
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.journal.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Errorf("failed to list journal entries for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNotMultipleOfRatio),
		errors.Is(err, ledger.ErrSameWallet):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, asset.ErrAssetNotFound),
		errors.Is(err, ErrWalletNotFound),
		errors.Is(err, item.ErrItemNotFound),
		errors.Is(err, ledger.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "duplicate transaction detected"})
	case errors.Is(err, ledger.ErrTreasuryDepleted):
		// operator-retryable: the reserve needs replenishing, the request
		// itself was fine
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: err.Error()})
	default:
		logger.Errorf("wallet operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}
