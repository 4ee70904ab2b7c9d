package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

const requestContextKey = "uchan.request"

// RequestContext carries the authenticated caller through a request. It is
// produced by the session middleware and read by handlers; there is no
// hidden state beyond it.
type RequestContext struct {
	Session *models.Session
	User    *models.User
}

func requestContext(c *gin.Context) *RequestContext {
	rc, _ := c.MustGet(requestContextKey).(*RequestContext)
	return rc
}

var clientTypes = map[string]struct{}{
	"android": {},
	"ios":     {},
	"windows": {},
}

// RequireHeaders enforces the client header contract. Every API route,
// authenticated or not, sits behind it.
func (s *Server) RequireHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := clientTypes[c.GetHeader("Client-Type")]; !ok {
			respondError(c, http.StatusBadRequest, "unknown client type")
			return
		}
		if c.GetHeader("Client-Version") == "" {
			respondError(c, http.StatusBadRequest, "missing client version")
			return
		}
		if !strings.Contains(c.GetHeader("Accept"), "application/json") {
			respondError(c, http.StatusBadRequest, "client must accept application/json")
			return
		}
		if c.Request.ContentLength > 0 &&
			!strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			respondError(c, http.StatusBadRequest, "body must be application/json")
			return
		}
		c.Next()
	}
}

// sessionToken extracts the bearer token from the Basic authorization
// scheme the clients use: base64(token:flag) with flag x or X.
func sessionToken(header string) (string, bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", false
	}
	token, flag, ok := strings.Cut(string(raw), ":")
	if !ok || token == "" || (flag != "x" && flag != "X") {
		return "", false
	}
	return token, true
}

// RequireSession resolves the session and its user and attaches the
// RequestContext. Malformed credentials, unknown or expired tokens and
// sessions pointing at a vanished user all read as unauthenticated.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := sessionToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, http.StatusUnauthorized, "missing or malformed credentials")
			return
		}

		session, err := s.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorSessionExpired) {
				respondError(c, http.StatusUnauthorized, "invalid session")
				return
			}
			respondErr(c, err)
			return
		}

		user, err := s.repos.Users().GetByID(c.Request.Context(), session.User)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				respondError(c, http.StatusUnauthorized, "invalid session")
				return
			}
			respondErr(c, err)
			return
		}

		c.Set(requestContextKey, &RequestContext{Session: session, User: user})
		c.Next()
	}
}

// requireBoardAccess loads the board and checks the caller's subscription.
// A missing board is 404; an unsubscribed caller is 403.
func (s *Server) requireBoardAccess(c *gin.Context, rc *RequestContext, boardID int64) (*models.Board, bool) {
	board, err := s.repos.Boards().GetByID(c.Request.Context(), boardID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}

	subscribed, err := s.repos.Boards().IsSubscribed(c.Request.Context(), rc.User.ID, board.ID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	if !subscribed {
		respondError(c, http.StatusForbidden, "not subscribed to this board")
		return nil, false
	}

	return board, true
}

// requireOwnershipOrAdmin gates destructive operations on authored content.
func requireOwnershipOrAdmin(c *gin.Context, rc *RequestContext, authorID int64) bool {
	if rc.User.Admin || rc.User.ID == authorID {
		return true
	}
	respondError(c, http.StatusForbidden, "not the author")
	return false
}
