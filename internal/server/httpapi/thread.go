package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/server/anonid"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/monitoring"
)

// loadThread resolves the thread and checks the caller's access to its
// board in one step.
func (s *Server) loadThread(c *gin.Context, rc *RequestContext) (*models.Thread, bool) {
	threadID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid thread id")
		return nil, false
	}

	thread, err := s.repos.Threads().GetByID(c.Request.Context(), threadID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}

	if _, ok := s.requireBoardAccess(c, rc, thread.Board); !ok {
		return nil, false
	}

	return thread, true
}

func (s *Server) handleThreadPosts(c *gin.Context) {
	rc := requestContext(c)

	thread, ok := s.loadThread(c, rc)
	if !ok {
		return
	}

	list, err := s.repos.Posts().ListByThread(c.Request.Context(), thread.ID, pageParam(c, "page"))
	if err != nil {
		respondErr(c, err)
		return
	}

	threadItem, err := s.threadJSON(c.Request.Context(), thread, rc.User)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		item, err := s.postJSON(c.Request.Context(), thread, &list[i], rc.User)
		if err != nil {
			respondErr(c, err)
			return
		}
		out = append(out, item)
	}

	respondData(c, http.StatusOK, gin.H{"thread": threadItem, "posts": out})
}

type postCreateRequest struct {
	Text  string `json:"text" binding:"required,max=1250"`
	Anon  bool   `json:"anon"`
	Reply *int64 `json:"reply"`
	imagePair
}

func (s *Server) handlePostCreate(c *gin.Context) {
	rc := requestContext(c)

	thread, ok := s.loadThread(c, rc)
	if !ok {
		return
	}

	var req postCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Reply != nil {
		reply, err := s.repos.Posts().GetByID(c.Request.Context(), *req.Reply)
		if err != nil || reply.Thread != thread.ID {
			respondError(c, http.StatusBadRequest, "reply target not in this thread")
			return
		}
	}

	image, err := s.storeUpload(c.Request.Context(), req.imagePair)
	if err != nil {
		respondErr(c, err)
		return
	}

	post := &models.Post{
		OP:      rc.User.ID == thread.Author,
		Anon:    req.Anon,
		Text:    req.Text,
		Image:   image,
		Posted:  time.Now().UTC(),
		ReplyTo: req.Reply,
		Thread:  thread.ID,
		Author:  rc.User.ID,
		Board:   thread.Board,
	}

	post, err = s.repos.Posts().Create(c.Request.Context(), post, func() (string, error) {
		return anonid.DeriveTag(thread.ID, rc.User.ID)
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.PostsCreated.Inc()

	item, err := s.postJSON(c.Request.Context(), thread, post, rc.User)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, item)
}

func (s *Server) handleThreadDelete(c *gin.Context) {
	rc := requestContext(c)

	thread, ok := s.loadThread(c, rc)
	if !ok {
		return
	}

	if !requireOwnershipOrAdmin(c, rc, thread.Author) {
		return
	}

	if err := s.repos.Threads().Delete(c.Request.Context(), thread.ID); err != nil {
		respondErr(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "thread deleted",
		"thread_id", thread.ID, "by", rc.User.ID)

	respondNoContent(c)
}

func (s *Server) handlePostDelete(c *gin.Context) {
	rc := requestContext(c)

	postID, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := s.repos.Posts().GetByID(c.Request.Context(), postID)
	if err != nil {
		respondErr(c, err)
		return
	}

	if _, ok := s.requireBoardAccess(c, rc, post.Board); !ok {
		return
	}

	if !requireOwnershipOrAdmin(c, rc, post.Author) {
		return
	}

	if err := s.repos.Posts().Delete(c.Request.Context(), post); err != nil {
		respondErr(c, err)
		return
	}

	respondNoContent(c)
}
