package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/realtime"
	chattypes "github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// ChatAPI exposes support chat over REST and the websocket upgrade endpoint.
type ChatAPI struct {
	service chatports.Service
	hub     *realtime.Hub
}

// NewChatAPI wires dependencies. hub may be nil when realtime delivery is disabled.
func NewChatAPI(service chatports.Service, hub *realtime.Hub) ChatAPI {
	return ChatAPI{service: service, hub: hub}
}

type markReadRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type markReadResponse struct {
	UserID       string                     `json:"userId"`
	Marked       int64                      `json:"marked"`
	Conversation *realtime.ConversationView `json:"conversation,omitempty"`
}

// Get /api/chat/history/:userId
// Messages of a customer's thread, oldest first
func (api *ChatAPI) GetHistory(c *gin.Context) {
	input := chattypes.HistoryInput{Actor: chatActor(c), CustomerID: c.Param("userId")}
	messages, err := api.service.History(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, realtime.ToMessageViews(messages))
}

// Get /api/chat/conversations
// Active conversations, most recent first
func (api *ChatAPI) GetConversations(c *gin.Context) {
	conversations, err := api.service.Conversations(c.Request.Context(), chatActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, realtime.ToConversationViews(conversations))
}

// Put /api/chat/mark-read
// Mark a customer's thread read
func (api *ChatAPI) MarkRead(c *gin.Context) {
	var payload markReadRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	result, err := api.service.MarkRead(c.Request.Context(), chattypes.MarkReadInput{Actor: chatActor(c), CustomerID: payload.UserID})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response := markReadResponse{UserID: result.CustomerID, Marked: result.Marked}
	if result.Conversation != nil {
		view := realtime.ToConversationView(result.Conversation)
		response.Conversation = &view
	}
	c.JSON(http.StatusOK, response)
}

// Put /api/chat/mark-all-read
// Mark every conversation read
func (api *ChatAPI) MarkAllRead(c *gin.Context) {
	conversations, err := api.service.MarkAllRead(c.Request.Context(), chatActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, realtime.ToConversationViews(conversations))
}

// Get /api/chat/unread/:userId
// Count of unread replies addressed to the user
func (api *ChatAPI) GetUnreadCount(c *gin.Context) {
	count, err := api.service.UnreadCount(c.Request.Context(), chattypes.UnreadInput{Actor: chatActor(c), UserID: c.Param("userId")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// Get /ws/chat
// Upgrade to the realtime chat channel
func (api *ChatAPI) Connect(c *gin.Context) {
	if api.hub == nil {
		respondProblem(c, problemRealtimeDisabled)
		return
	}
	if err := api.hub.Serve(c.Writer, c.Request, chatActor(c)); err != nil {
		// The upgrader has already written the handshake failure.
		_ = c.Error(err)
	}
}

func chatActor(c *gin.Context) chattypes.Actor {
	principal, _ := auth.PrincipalFrom(c)
	return chattypes.Actor{UserID: principal.UserID, IsAdmin: principal.IsAdmin}
}
