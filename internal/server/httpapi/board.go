package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/server/anonid"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/monitoring"
)

// handleBoardThreads lists one page of a board the caller is subscribed
// to, pinned threads first on page one.
func (s *Server) handleBoardThreads(c *gin.Context) {
	rc := requestContext(c)

	boardID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid board id")
		return
	}

	board, ok := s.requireBoardAccess(c, rc, boardID)
	if !ok {
		return
	}

	list, err := s.repos.Threads().ListByBoard(c.Request.Context(), board.ID, pageParam(c, "page"))
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		item, err := s.threadJSON(c.Request.Context(), &list[i], rc.User)
		if err != nil {
			respondErr(c, err)
			return
		}
		out = append(out, item)
	}

	respondData(c, http.StatusOK, gin.H{"board": boardJSON(board), "threads": out})
}

type threadCreateRequest struct {
	Title string `json:"title" binding:"required,max=50"`
	Text  string `json:"text" binding:"required,max=1250"`
	Anon  bool   `json:"anon"`
	imagePair
}

func (s *Server) handleThreadCreate(c *gin.Context) {
	rc := requestContext(c)

	boardID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid board id")
		return
	}

	board, ok := s.requireBoardAccess(c, rc, boardID)
	if !ok {
		return
	}

	var req threadCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	image, err := s.storeUpload(c.Request.Context(), req.imagePair)
	if err != nil {
		respondErr(c, err)
		return
	}

	thread := &models.Thread{
		Anon:   req.Anon,
		Title:  req.Title,
		Text:   req.Text,
		Image:  image,
		Posted: time.Now().UTC(),
		Board:  board.ID,
		Author: rc.User.ID,
	}

	thread, err = s.repos.Threads().Create(c.Request.Context(), thread, func() (string, error) {
		return anonid.DeriveTag(thread.ID, rc.User.ID)
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.ThreadsCreated.Inc()
	s.logger.Info(c.Request.Context(), "thread created",
		"thread_id", thread.ID, "board_id", board.ID, "anon", thread.Anon)

	item, err := s.threadJSON(c.Request.Context(), thread, rc.User)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, item)
}
