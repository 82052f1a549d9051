package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/models"
	"blackmarket-trader/internal/services/auth"
	"blackmarket-trader/internal/services/eventoutput"
	"blackmarket-trader/internal/services/inventory"
	"blackmarket-trader/internal/services/price"
	"blackmarket-trader/internal/websocket"
)

const (
	actionTradingConfirm = "TradingConfirm"
	errCodeFailed        = 228
)

// TradeConfirmer dispatches one decoded TradingConfirm action.
type TradeConfirmer interface {
	ConfirmTrading(ctx context.Context, profile *models.Profile, req models.TradeRequest, sessionID string) (*models.ItemEventResponse, error)
}

// ProfileLoader loads the profile bound to a session.
type ProfileLoader interface {
	Profile(ctx context.Context, sessionID string) (*models.Profile, error)
}

// PriceTables exposes the current price table snapshot.
type PriceTables interface {
	Current() *price.Table
}

type APIHandler struct {
	authService *auth.Service
	profiles    ProfileLoader
	outputs     *eventoutput.Holder
	trading     TradeConfirmer
	prices      PriceTables
	wsHub       *websocket.Hub
	avatarRoute string
	avatarFile  string
	log         logrus.FieldLogger

	// the host handles one item event at a time
	mu sync.Mutex
}

type Dependencies struct {
	Auth        *auth.Service
	Profiles    ProfileLoader
	Outputs     *eventoutput.Holder
	Trading     TradeConfirmer
	Prices      PriceTables
	Hub         *websocket.Hub
	AvatarRoute string
	AvatarFile  string
	Log         logrus.FieldLogger
}

// envelope is the host's standard response wrapper.
type envelope struct {
	Err    int         `json:"err"`
	ErrMsg *string     `json:"errmsg"`
	Data   interface{} `json:"data"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type itemEventRequest struct {
	Data []json.RawMessage `json:"data"`
}

type actionHead struct {
	Action string `json:"Action"`
}

func SetupRoutes(r *gin.Engine, deps Dependencies) *APIHandler {
	handler := &APIHandler{
		authService: deps.Auth,
		profiles:    deps.Profiles,
		outputs:     deps.Outputs,
		trading:     deps.Trading,
		prices:      deps.Prices,
		wsHub:       deps.Hub,
		avatarRoute: deps.AvatarRoute,
		avatarFile:  deps.AvatarFile,
		log:         deps.Log,
	}

	r.GET("/health", handler.Health)

	// Launcher routes
	r.POST("/launcher/profile/login", handler.Login)

	// Item event routes
	client := r.Group("/client")
	client.Use(AuthMiddleware(deps.Auth))
	{
		client.POST("/game/profile/items/moving", handler.ItemsMoving)
	}

	// Blackmarket routes
	bm := r.Group("/blackmarket")
	{
		bm.GET("/prices", handler.GetPrices)
		bm.GET("/prices.csv", handler.GetPricesCSV)
	}

	r.GET("/files/trader/avatar/:name", handler.GetAvatar)

	if deps.Hub != nil {
		r.GET("/ws", deps.Hub.Handler())
	}

	return handler
}

func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, profile, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"sessionId": profile.SessionID,
		"profileId": profile.ID,
	})
}

// ItemsMoving runs every action of an item event request against the caller's
// profile. Processing stops at the first failed action; its error is reported as a
// warning and in the response envelope.
func (h *APIHandler) ItemsMoving(c *gin.Context) {
	sessionID := c.GetString("session_id")

	var req itemEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := c.Request.Context()
	profile, err := h.profiles.Profile(ctx, sessionID)
	if errors.Is(err, inventory.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	output := h.outputs.Reset(sessionID)
	defer h.outputs.Release(sessionID)

	var failure error
	for i, raw := range req.Data {
		var head actionHead
		if err := json.Unmarshal(raw, &head); err != nil {
			failure = err
			output.AddWarning(i, err.Error())
			break
		}

		if head.Action != actionTradingConfirm {
			output.AddWarning(i, "unsupported action: "+head.Action)
			continue
		}

		trade, err := models.DecodeTradeRequest(raw)
		if err == nil {
			_, err = h.trading.ConfirmTrading(ctx, profile, trade, sessionID)
		}
		if err != nil {
			h.log.WithError(err).Warnf("Action %d failed", i)
			failure = err
			output.AddWarning(i, err.Error())
			break
		}
	}

	resp := envelope{Data: output}
	if failure != nil {
		msg := failure.Error()
		resp.Err = errCodeFailed
		resp.ErrMsg = &msg
	}
	c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) GetPrices(c *gin.Context) {
	table := h.prices.Current()
	c.JSON(http.StatusOK, gin.H{
		"prices":  table.Entries(),
		"skipped": table.Skipped(),
		"builtAt": table.BuiltAt(),
	})
}

func (h *APIHandler) GetPricesCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.prices.Current().WriteCSV(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *APIHandler) GetAvatar(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".jpg")
	if "/files/trader/avatar/"+name != h.avatarRoute {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	c.File(h.avatarFile)
}
