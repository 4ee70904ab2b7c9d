package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

// Wire representations. Authored content is masked for anonymous threads:
// everyone except admins sees the derived tag instead of the nickname, and
// the author is addressable for chat only through the participant row id.

func mediaPath(image string) any {
	if image == "" {
		return nil
	}
	return "media/" + image
}

func wireTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func universityJSON(u *models.University) gin.H {
	return gin.H{
		"id":     u.ID,
		"name":   u.Name,
		"city":   u.City,
		"domain": u.Domain,
	}
}

func boardJSON(b *models.Board) gin.H {
	return gin.H{
		"id":         b.ID,
		"memo":       b.Memo,
		"name":       b.Name,
		"university": b.University,
	}
}

func meJSON(user *models.User, universityName string, boards []models.Board) gin.H {
	boardList := make([]gin.H, 0, len(boards))
	for i := range boards {
		boardList = append(boardList, boardJSON(&boards[i]))
	}
	return gin.H{
		"id":         user.ID,
		"nickname":   user.Nickname,
		"university": universityName,
		"gender":     user.Gender(),
		"profilepic": mediaPath(user.ProfilePic),
		"boards":     boardList,
	}
}

// authorIdentity resolves the displayed name and the chat handle for a
// piece of authored content inside a thread.
func (s *Server) authorIdentity(ctx context.Context, thread *models.Thread, authorID int64, anon bool, viewer *models.User) (name string, chat any, err error) {
	participant, err := s.repos.Threads().GetParticipant(ctx, thread.ID, authorID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", nil, err
	}

	if participant != nil && authorID != viewer.ID {
		chat = participant.ID
	}

	if anon && !viewer.Admin {
		if participant == nil {
			return "", nil, common.ErrorInternal
		}
		return participant.AuthID, chat, nil
	}

	author, err := s.repos.Users().GetByID(ctx, authorID)
	if err != nil {
		return "", nil, err
	}
	return author.Nickname, chat, nil
}

func (s *Server) threadJSON(ctx context.Context, thread *models.Thread, viewer *models.User) (gin.H, error) {
	name, chat, err := s.authorIdentity(ctx, thread, thread.Author, thread.Anon, viewer)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":      thread.ID,
		"title":   thread.Title,
		"text":    thread.Text,
		"image":   mediaPath(thread.Image),
		"anon":    thread.Anon,
		"pinned":  thread.Pinned,
		"posted":  wireTime(thread.Posted),
		"replies": thread.Replies,
		"images":  thread.Images,
		"board":   thread.Board,
		"name":    name,
		"chat":    chat,
		"delete":  viewer.Admin || viewer.ID == thread.Author,
	}, nil
}

func (s *Server) postJSON(ctx context.Context, thread *models.Thread, post *models.Post, viewer *models.User) (gin.H, error) {
	name, chat, err := s.authorIdentity(ctx, thread, post.Author, post.Anon, viewer)
	if err != nil {
		return nil, err
	}

	var reply any
	if post.ReplyTo != nil {
		reply = *post.ReplyTo
	}

	return gin.H{
		"id":     post.ID,
		"text":   post.Text,
		"image":  mediaPath(post.Image),
		"op":     post.OP,
		"anon":   post.Anon,
		"posted": wireTime(post.Posted),
		"reply":  reply,
		"thread": post.Thread,
		"name":   name,
		"chat":   chat,
		"delete": viewer.Admin || viewer.ID == post.Author,
	}, nil
}

// chatUserJSON expands a user on the chat side of the wire, where
// identities are no longer masked: the requester unmasked themself by
// requesting, the anonymous participant by accepting.
func (s *Server) chatUserJSON(ctx context.Context, userID int64) (gin.H, error) {
	user, err := s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	university, err := s.repos.Universities().GetByID(ctx, user.University)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":         user.ID,
		"nickname":   user.Nickname,
		"university": university.Name,
		"gender":     user.Gender(),
		"profilepic": mediaPath(user.ProfilePic),
	}, nil
}

func (s *Server) chatJSON(ctx context.Context, chat *models.Chat, viewerID int64) (gin.H, error) {
	peer, err := s.chatUserJSON(ctx, chat.Peer(viewerID))
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":   chat.ID,
		"peer": peer,
		"last": wireTime(chat.Last),
	}, nil
}

func messageJSON(msg *models.Message, viewerID int64) gin.H {
	return gin.H{
		"id":    msg.ID,
		"chat":  msg.Chat,
		"text":  msg.Text,
		"image": mediaPath(msg.Image),
		"sent":  wireTime(msg.Sent),
		"mine":  msg.From == viewerID,
	}
}

func (s *Server) requestJSON(ctx context.Context, req *models.ChatRequest) (gin.H, error) {
	from, err := s.chatUserJSON(ctx, req.From)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"id":       req.ID,
		"from":     from,
		"accepted": req.Accepted,
	}, nil
}
