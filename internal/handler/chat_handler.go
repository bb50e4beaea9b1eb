package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insighthub/internal/pkg/errcode"
	"github.com/xxxsen/insighthub/internal/pkg/response"
	"github.com/xxxsen/insighthub/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.Answer(c.Request.Context(), user, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"response": answer})
}
