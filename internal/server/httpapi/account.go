package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/monitoring"
	"github.com/uchan-net/uchan/internal/server/users"
)

type registerRequest struct {
	Nickname   string `json:"nickname" binding:"required,nickname"`
	Password   string `json:"password" binding:"required,userpassword"`
	Email      string `json:"email" binding:"required,useremail"`
	Gender     string `json:"gender" binding:"required,oneof=m M f F"`
	University int64  `json:"university" binding:"required"`
	DeviceID   string `json:"deviceId" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Register(c.Request.Context(), users.RegisterParams{
		Nickname:   req.Nickname,
		Password:   req.Password,
		Email:      req.Email,
		Female:     strings.EqualFold(req.Gender, "f"),
		University: req.University,
		DeviceID:   req.DeviceID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.RegisterSuccess.Inc()
	s.logger.Info(c.Request.Context(), "user registered", "user_id", user.ID)

	respondData(c, http.StatusCreated, gin.H{"id": user.ID, "nickname": user.Nickname})
}

func (s *Server) handleActivate(c *gin.Context) {
	user, err := s.users.Activate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.ActivationSuccess.Inc()
	s.logger.Info(c.Request.Context(), "user activated", "user_id", user.ID)

	respondData(c, http.StatusOK, gin.H{"id": user.ID, "nickname": user.Nickname})
}

type loginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Authenticate(c.Request.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidLogin) {
			monitoring.LoginFailure.WithLabelValues("credentials").Inc()
		} else {
			monitoring.LoginFailure.WithLabelValues("internal").Inc()
		}
		respondErr(c, err)
		return
	}

	session, err := s.sessions.Create(c.Request.Context(), c.ClientIP(), user.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	me, err := s.meRepresentation(c, user)
	if err != nil {
		respondErr(c, err)
		return
	}

	monitoring.LoginSuccess.Inc()
	s.logger.Info(c.Request.Context(), "session created", "user_id", user.ID, "ip", session.IPAddr)

	respondData(c, http.StatusCreated, gin.H{"token": session.Token, "user": me})
}

// handleLogout revokes the caller's own session. Revoking someone else's
// token is forbidden even when the token is known.
func (s *Server) handleLogout(c *gin.Context) {
	rc := requestContext(c)

	token := c.Param("token")
	if token != rc.Session.Token {
		respondError(c, http.StatusForbidden, "not your session")
		return
	}

	if err := s.sessions.Revoke(c.Request.Context(), token); err != nil {
		respondErr(c, err)
		return
	}

	respondNoContent(c)
}

func (s *Server) meRepresentation(c *gin.Context, user *models.User) (gin.H, error) {
	university, err := s.repos.Universities().GetByID(c.Request.Context(), user.University)
	if err != nil {
		return nil, err
	}

	boards, err := s.repos.Boards().ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		return nil, err
	}

	return meJSON(user, university.Name, boards), nil
}

func (s *Server) handleMe(c *gin.Context) {
	rc := requestContext(c)

	me, err := s.meRepresentation(c, rc.User)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, me)
}

func (s *Server) handleMyThreads(c *gin.Context) {
	rc := requestContext(c)

	list, err := s.repos.Threads().ListByAuthor(c.Request.Context(), rc.User.ID, pageParam(c, "page"))
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

	respondData(c, http.StatusOK, out)
}
