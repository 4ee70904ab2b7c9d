package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/monitoring"
)

// Chat requests are addressed to thread participant rows, never to user
// ids, so requesting a chat with an anonymous author does not reveal who
// they are. Identity crosses the boundary only when the addressee accepts.

func (s *Server) handleChatRequests(c *gin.Context) {
	rc := requestContext(c)

	list, err := s.repos.Chats().PendingRequests(c.Request.Context(), rc.User.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		item, err := s.requestJSON(c.Request.Context(), &list[i])
		if err != nil {
			respondErr(c, err)
			return
		}
		out = append(out, item)
	}

	respondData(c, http.StatusOK, out)
}

func (s *Server) handleChatRequestCreate(c *gin.Context) {
	rc := requestContext(c)

	participantID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid participant id")
		return
	}

	participant, err := s.repos.Threads().GetParticipantByID(c.Request.Context(), participantID)
	if err != nil {
		respondErr(c, err)
		return
	}

	if participant.User == rc.User.ID {
		respondError(c, http.StatusBadRequest, "cannot chat with yourself")
		return
	}

	req, err := s.repos.Chats().CreateRequest(c.Request.Context(), &models.ChatRequest{
		From: rc.User.ID,
		To:   participant.User,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	item, err := s.requestJSON(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, item)
}

func (s *Server) handleChatAccept(c *gin.Context) {
	rc := requestContext(c)

	requestID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := s.repos.Chats().GetRequest(c.Request.Context(), requestID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if req.To != rc.User.ID {
		respondError(c, http.StatusForbidden, "not the addressee")
		return
	}

	chat, err := s.repos.Chats().AcceptRequest(c.Request.Context(), req.ID, time.Now().UTC())
	if err != nil {
		respondErr(c, err)
		return
	}

	item, err := s.chatJSON(c.Request.Context(), chat, rc.User.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, item)
}

func (s *Server) handleChatDecline(c *gin.Context) {
	rc := requestContext(c)

	requestID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := s.repos.Chats().GetRequest(c.Request.Context(), requestID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if req.To != rc.User.ID {
		respondError(c, http.StatusForbidden, "not the addressee")
		return
	}

	if err := s.repos.Chats().DeleteRequest(c.Request.Context(), req.ID); err != nil {
		respondErr(c, err)
		return
	}

	respondNoContent(c)
}

// handleChatList serves both /chat and /chat/:id, where the optional
// trailing segment is a page number.
func (s *Server) handleChatList(c *gin.Context) {
	rc := requestContext(c)

	list, err := s.repos.Chats().ListChats(c.Request.Context(), rc.User.ID, pageParam(c, "id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		item, err := s.chatJSON(c.Request.Context(), &list[i], rc.User.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out = append(out, item)
	}

	respondData(c, http.StatusOK, out)
}

// loadChat resolves the chat and rejects callers that are not members.
func (s *Server) loadChat(c *gin.Context, rc *RequestContext) (*models.Chat, bool) {
	chatID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid chat id")
		return nil, false
	}

	chat, err := s.repos.Chats().GetChat(c.Request.Context(), chatID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	if !chat.Member(rc.User.ID) {
		respondError(c, http.StatusForbidden, "not a member of this chat")
		return nil, false
	}

	return chat, true
}

func (s *Server) handleChatMessages(c *gin.Context) {
	rc := requestContext(c)

	chat, ok := s.loadChat(c, rc)
	if !ok {
		return
	}

	list, err := s.repos.Chats().ListMessages(c.Request.Context(), chat.ID, pageParam(c, "page"))
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, messageJSON(&list[i], rc.User.ID))
	}

	respondData(c, http.StatusOK, out)
}

type messageCreateRequest struct {
	Text string `json:"text" binding:"required,max=1250"`
	imagePair
}

func (s *Server) handleChatMessageCreate(c *gin.Context) {
	rc := requestContext(c)

	chat, ok := s.loadChat(c, rc)
	if !ok {
		return
	}

	var req messageCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	image, err := s.storeUpload(c.Request.Context(), req.imagePair)
	if err != nil {
		respondErr(c, err)
		return
	}

	msg, err := s.repos.Chats().CreateMessage(c.Request.Context(), &models.Message{
		Chat:  chat.ID,
		From:  rc.User.ID,
		To:    chat.Peer(rc.User.ID),
		Text:  req.Text,
		Image: image,
		Sent:  time.Now().UTC(),
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.MessagesSent.Inc()

	respondData(c, http.StatusCreated, messageJSON(msg, rc.User.ID))
}
