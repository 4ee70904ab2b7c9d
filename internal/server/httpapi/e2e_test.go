package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The whole lifecycle through the public API: two students register at the
// same university, one opens an anonymous thread, the other replies, the
// author's identity stays masked, and the author finally deletes the
// thread with everything in it.
func TestAnonymousThreadLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	author := e.signUp("student_01", "author@uni-hamburg.de")
	replier := e.signUp("student_02", "replier@uni-hamburg.de")

	// Both land on the general board through activation.
	const boardPath = "/api/board/1"

	w := e.do(http.MethodPost, boardPath, author, gin.H{
		"title": "exam week",
		"text":  "anyone else dying",
		"anon":  true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	thread := decodeData(t, w)
	threadID := int64(thread["id"].(float64))
	threadPath := "/api/thread/" + strconv.FormatInt(threadID, 10)

	// Anonymity holds even for the author's own view; only admins see
	// through the mask.
	authorTag := thread["name"].(string)
	assert.Len(t, authorTag, 8)
	assert.NotEqual(t, "student_01", authorTag)
	assert.Equal(t, true, thread["delete"])

	// The replier sees the same tag.
	w = e.do(http.MethodGet, boardPath, replier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decodeData(t, w)["threads"].([]any)[0].(map[string]any)
	tag := listed["name"].(string)
	assert.Equal(t, authorTag, tag)
	assert.Equal(t, false, listed["delete"])
	assert.NotNil(t, listed["chat"], "anonymous author is addressable via participant id")

	// Reply, also anonymous.
	w = e.do(http.MethodPost, threadPath, replier, gin.H{
		"text": "same here",
		"anon": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reply := decodeData(t, w)
	assert.Equal(t, false, reply["op"])

	// A second reply by the same user carries the same tag.
	w = e.do(http.MethodPost, threadPath, replier, gin.H{
		"text": "bump",
		"anon": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodGet, threadPath, author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeData(t, w)

	posts := page["posts"].([]any)
	require.Len(t, posts, 2)
	firstTag := posts[0].(map[string]any)["name"].(string)
	secondTag := posts[1].(map[string]any)["name"].(string)
	assert.NotEqual(t, "student_02", firstTag, "author is not an admin, sees the tag")
	assert.Equal(t, firstTag, secondTag, "one tag per user per thread")

	// Counters track the live post count.
	assert.Equal(t, float64(2), page["thread"].(map[string]any)["replies"])
	assert.Equal(t, float64(0), page["thread"].(map[string]any)["images"])

	// Only the author or an admin may delete.
	w = e.do(http.MethodDelete, threadPath, replier, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodDelete, threadPath, author, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, threadPath, author, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The cascade removed the posts too.
	listPosts, err := e.manager.Posts().ListByThread(ctx, threadID, 1)
	require.NoError(t, err)
	assert.Empty(t, listPosts)
}

func TestPostDelete_CountersAndOwnership(t *testing.T) {
	e := newTestEnv(t)

	author := e.signUp("student_01", "author@uni-hamburg.de")
	replier := e.signUp("student_02", "replier@uni-hamburg.de")

	w := e.do(http.MethodPost, "/api/board/1", author, gin.H{
		"title": "lost keys",
		"text":  "seen near the library",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	threadID := int64(decodeData(t, w)["id"].(float64))
	threadPath := "/api/thread/" + strconv.FormatInt(threadID, 10)

	w = e.do(http.MethodPost, threadPath, replier, gin.H{"text": "check the cafeteria"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := int64(decodeData(t, w)["id"].(float64))
	postPath := "/api/post/" + strconv.FormatInt(postID, 10)

	// The thread author does not own the reply.
	w = e.do(http.MethodDelete, postPath, author, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodDelete, postPath, replier, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, threadPath, author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeData(t, w)
	assert.Empty(t, page["posts"])
	assert.Equal(t, float64(0), page["thread"].(map[string]any)["replies"])
}

func TestChatLifecycle(t *testing.T) {
	e := newTestEnv(t)

	author := e.signUp("student_01", "author@uni-hamburg.de")
	requester := e.signUp("student_02", "requester@uni-hamburg.de")

	w := e.do(http.MethodPost, "/api/board/1", author, gin.H{
		"title": "late night study group",
		"text":  "dm me",
		"anon":  true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	threadID := strconv.FormatInt(int64(decodeData(t, w)["id"].(float64)), 10)

	// The requester addresses the participant row, not a user id.
	w = e.do(http.MethodGet, "/api/thread/"+threadID, requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	participantID := int64(decodeData(t, w)["thread"].(map[string]any)["chat"].(float64))
	participantPath := strconv.FormatInt(participantID, 10)

	w = e.do(http.MethodPost, "/api/chat/request/"+participantPath, requester, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := strconv.FormatInt(int64(decodeData(t, w)["id"].(float64)), 10)

	// Duplicate request for the same pair conflicts.
	w = e.do(http.MethodPost, "/api/chat/request/"+participantPath, requester, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Only the addressee can accept.
	w = e.do(http.MethodPost, "/api/chat/accept/"+requestID, requester, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The requester unmasked themself by asking; the addressee sees who
	// wants to talk before deciding.
	w = e.do(http.MethodGet, "/api/chat/request", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decodeDataList(t, w)
	require.Len(t, pending, 1)
	from := pending[0].(map[string]any)["from"].(map[string]any)
	assert.Equal(t, "student_02", from["nickname"])
	assert.Equal(t, "Uni Hamburg", from["university"])

	w = e.do(http.MethodPost, "/api/chat/accept/"+requestID, author, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	accepted := decodeData(t, w)
	chatID := strconv.FormatInt(int64(accepted["id"].(float64)), 10)
	assert.Equal(t, "student_02", accepted["peer"].(map[string]any)["nickname"])

	// Accepting twice conflicts.
	w = e.do(http.MethodPost, "/api/chat/accept/"+requestID, author, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Members exchange messages; outsiders are shut out.
	w = e.do(http.MethodPost, "/api/chat/"+chatID+"/messages", requester, gin.H{"text": "hey"})
	assert.Equal(t, http.StatusCreated, w.Code)

	outsider := e.signUp("student_03", "outsider@uni-hamburg.de")
	w = e.do(http.MethodGet, "/api/chat/"+chatID+"/messages", outsider, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/chat", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	chats := decodeDataList(t, w)
	require.Len(t, chats, 1)
	assert.Equal(t, "student_02", chats[0].(map[string]any)["peer"].(map[string]any)["nickname"])

	// Accepting revealed the anonymous thread author to the requester.
	w = e.do(http.MethodGet, "/api/chat", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	chats = decodeDataList(t, w)
	require.Len(t, chats, 1)
	assert.Equal(t, "student_01", chats[0].(map[string]any)["peer"].(map[string]any)["nickname"])

	w = e.do(http.MethodGet, "/api/chat/"+chatID+"/messages", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := decodeDataList(t, w)
	require.Len(t, messages, 1)
	assert.Equal(t, "hey", messages[0].(map[string]any)["text"])
	assert.Equal(t, false, messages[0].(map[string]any)["mine"])
}

func TestMediaUploadAndServe(t *testing.T) {
	e := newTestEnv(t)

	author := e.signUp("student_01", "author@uni-hamburg.de")

	payload := base64.StdEncoding.EncodeToString([]byte("pretend this is a png"))

	w := e.do(http.MethodPost, "/api/board/1", author, gin.H{
		"title":      "sunset from the dorms",
		"text":       "had to share",
		"image":      payload,
		"image_name": "sunset.png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	image := decodeData(t, w)["image"].(string)
	require.NotEmpty(t, image)

	w = e.do(http.MethodGet, "/api/"+image, author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pretend this is a png", w.Body.String())

	w = e.do(http.MethodGet, "/api/media/nope.png", author, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Image without a name is rejected, as is a name without an image.
	w = e.do(http.MethodPost, "/api/board/1", author, gin.H{
		"title": "broken upload",
		"text":  "oops",
		"image": payload,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/board/1", author, gin.H{
		"title":      "bad extension",
		"text":       "oops",
		"image":      payload,
		"image_name": "script.exe",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
