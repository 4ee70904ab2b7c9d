package db

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/boards"
	"github.com/uchan-net/uchan/internal/server/chats"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/posts"
	"github.com/uchan-net/uchan/internal/server/sessions"
	"github.com/uchan-net/uchan/internal/server/threads"
	"github.com/uchan-net/uchan/internal/server/universities"
	"github.com/uchan-net/uchan/internal/server/users"
)

// InMemoryRepositoryManager backs all repositories with maps guarded by one
// mutex. It mirrors the relational semantics closely enough for service and
// handler tests to run without a database.
type InMemoryRepositoryManager struct {
	store *memStore
}

type memStore struct {
	mu sync.Mutex

	// One sequence per entity, mirroring the per-table serials.
	seq map[string]int64

	users        map[int64]*models.User
	sessions     map[int64]*models.Session
	universities map[int64]*models.University
	boards       map[int64]*models.Board
	subs         map[int64]map[int64]bool // userID -> boardID
	threads      map[int64]*models.Thread
	participants map[int64]*models.ThreadParticipant
	posts        map[int64]*models.Post
	requests     map[int64]*models.ChatRequest
	chats        map[int64]*models.Chat
	messages     map[int64]*models.Message
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return InMemoryRepositoryManager{store: &memStore{
		seq:          map[string]int64{},
		users:        map[int64]*models.User{},
		sessions:     map[int64]*models.Session{},
		universities: map[int64]*models.University{},
		boards:       map[int64]*models.Board{},
		subs:         map[int64]map[int64]bool{},
		threads:      map[int64]*models.Thread{},
		participants: map[int64]*models.ThreadParticipant{},
		posts:        map[int64]*models.Post{},
		requests:     map[int64]*models.ChatRequest{},
		chats:        map[int64]*models.Chat{},
		messages:     map[int64]*models.Message{},
	}}
}

func (m InMemoryRepositoryManager) Conn() *sql.DB { return nil }

func (m InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m InMemoryRepositoryManager) Users() users.Repository { return memUsers{m.store} }

func (m InMemoryRepositoryManager) Sessions() sessions.Repository { return memSessions{m.store} }

func (m InMemoryRepositoryManager) Universities() universities.Repository {
	return memUniversities{m.store}
}

func (m InMemoryRepositoryManager) Boards() boards.Repository { return memBoards{m.store} }

func (m InMemoryRepositoryManager) Threads() threads.Repository { return memThreads{m.store} }

func (m InMemoryRepositoryManager) Posts() posts.Repository { return memPosts{m.store} }

func (m InMemoryRepositoryManager) Chats() chats.Repository { return memChats{m.store} }

func (s *memStore) id(entity string) int64 {
	s.seq[entity]++
	return s.seq[entity]
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Nickname == user.Nickname || u.Token == user.Token {
			return nil, common.ErrorConflict
		}
		if u.Email == user.Email && u.University == user.University {
			return nil, common.ErrorConflict
		}
	}
	user.ID = r.s.id("users")
	cp := *user
	r.s.users[user.ID] = &cp
	return user, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByNickname(_ context.Context, nickname string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Nickname == nickname {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByActivationToken(_ context.Context, token string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Token == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) EmailTaken(_ context.Context, email string, university int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email && u.University == university {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Activate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Activated = true
	return nil
}

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, session *models.Session) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session.ID = r.s.id("sessions")
	cp := *session
	r.s.sessions[session.ID] = &cp
	return session, nil
}

func (r memSessions) GetByToken(_ context.Context, token string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memSessions) DeleteByToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, s := range r.s.sessions {
		if s.Token == token {
			delete(r.s.sessions, id)
			return nil
		}
	}
	return common.ErrorNotFound
}

type memUniversities struct{ s *memStore }

func (r memUniversities) Create(_ context.Context, university *models.University) (*models.University, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.universities {
		if u.Name == university.Name {
			return nil, common.ErrorConflict
		}
	}
	university.ID = r.s.id("universities")
	cp := *university
	r.s.universities[university.ID] = &cp
	return university, nil
}

func (r memUniversities) GetByID(_ context.Context, id int64) (*models.University, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.universities[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUniversities) List(_ context.Context) ([]models.University, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.University
	for _, u := range r.s.universities {
		list = append(list, *u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

type memBoards struct{ s *memStore }

func (r memBoards) Create(_ context.Context, board *models.Board) (*models.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.boards {
		if b.Memo == board.Memo || b.Name == board.Name {
			return nil, common.ErrorConflict
		}
	}
	board.ID = r.s.id("boards")
	cp := *board
	r.s.boards[board.ID] = &cp
	return board, nil
}

func (r memBoards) GetByID(_ context.Context, id int64) (*models.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBoards) ListByUniversity(_ context.Context, universityID int64) ([]models.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Board
	for _, b := range r.s.boards {
		if b.University == universityID {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r memBoards) ListForUser(_ context.Context, userID int64) ([]models.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Board
	for boardID := range r.s.subs[userID] {
		if b, ok := r.s.boards[boardID]; ok {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r memBoards) Subscribe(_ context.Context, userID, boardID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[boardID]; !ok {
		return common.ErrorNotFound
	}
	if r.s.subs[userID] == nil {
		r.s.subs[userID] = map[int64]bool{}
	}
	r.s.subs[userID][boardID] = true
	return nil
}

func (r memBoards) IsSubscribed(_ context.Context, userID, boardID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.subs[userID][boardID], nil
}

type memThreads struct{ s *memStore }

func (r memThreads) Create(_ context.Context, thread *models.Thread, derive threads.TagFunc) (*models.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	thread.ID = r.s.id("threads")
	// derive runs after the id assignment, so closures reading thread.ID
	// see the persisted id just like with INSERT ... RETURNING id.
	tag, err := derive()
	if err != nil {
		return nil, err
	}
	cp := *thread
	r.s.threads[thread.ID] = &cp
	p := &models.ThreadParticipant{
		ID: r.s.id("participants"), Thread: thread.ID, User: thread.Author, Follow: true, AuthID: tag,
	}
	r.s.participants[p.ID] = p
	return thread, nil
}

func (r memThreads) GetByID(_ context.Context, id int64) (*models.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memThreads) ListByBoard(_ context.Context, boardID int64, page int) ([]models.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.s.boardThreadsLocked(boardID)
	var list []models.Thread
	if page <= 1 {
		for _, t := range all {
			if t.Pinned {
				list = append(list, t)
			}
		}
	}
	return append(list, paginate(all, page, threads.BoardPageSize)...), nil
}

func (s *memStore) boardThreadsLocked(boardID int64) []models.Thread {
	var list []models.Thread
	for _, t := range s.threads {
		if t.Board == boardID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (r memThreads) ListByAuthor(_ context.Context, userID int64, page int) ([]models.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Thread
	for _, t := range r.s.threads {
		if t.Author == userID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return paginate(list, page, threads.UserPageSize), nil
}

func (r memThreads) Delete(_ context.Context, threadID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.threads[threadID]; !ok {
		return common.ErrorNotFound
	}
	for id, p := range r.s.posts {
		if p.Thread == threadID {
			delete(r.s.posts, id)
		}
	}
	for id, p := range r.s.participants {
		if p.Thread == threadID {
			delete(r.s.participants, id)
		}
	}
	delete(r.s.threads, threadID)
	return nil
}

func (r memThreads) EnsureParticipant(_ context.Context, threadID, userID int64, derive threads.TagFunc) (*models.ThreadParticipant, error) {
	tag, err := derive()
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants {
		if p.Thread == threadID && p.User == userID {
			cp := *p
			return &cp, nil
		}
	}
	p := &models.ThreadParticipant{
		ID: r.s.id("participants"), Thread: threadID, User: userID, Follow: true, AuthID: tag,
	}
	r.s.participants[p.ID] = p
	cp := *p
	return &cp, nil
}

func (r memThreads) GetParticipant(_ context.Context, threadID, userID int64) (*models.ThreadParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants {
		if p.Thread == threadID && p.User == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memThreads) GetParticipantByID(_ context.Context, id int64) (*models.ThreadParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memThreads) AuthorTag(_ context.Context, threadID int64) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var first *models.ThreadParticipant
	for _, p := range r.s.participants {
		if p.Thread != threadID {
			continue
		}
		if first == nil || p.ID < first.ID {
			first = p
		}
	}
	if first == nil {
		return "", common.ErrorNotFound
	}
	return first.AuthID, nil
}

type memPosts struct{ s *memStore }

func (r memPosts) Create(_ context.Context, post *models.Post, derive threads.TagFunc) (*models.Post, error) {
	tag, err := derive()
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[post.Thread]
	if !ok {
		return nil, common.ErrorNotFound
	}
	post.ID = r.s.id("posts")
	cp := *post
	r.s.posts[post.ID] = &cp
	found := false
	for _, p := range r.s.participants {
		if p.Thread == post.Thread && p.User == post.Author {
			found = true
			break
		}
	}
	if !found {
		p := &models.ThreadParticipant{
			ID: r.s.id("participants"), Thread: post.Thread, User: post.Author, Follow: true, AuthID: tag,
		}
		r.s.participants[p.ID] = p
	}
	t.Replies++
	if post.Image != "" {
		t.Images++
	}
	return post, nil
}

func (r memPosts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPosts) ListByThread(_ context.Context, threadID int64, page int) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Post
	for _, p := range r.s.posts {
		if p.Thread == threadID {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, page, posts.PageSize), nil
}

func (r memPosts) Delete(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.posts[post.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, p := range r.s.posts {
		if p.ReplyTo != nil && *p.ReplyTo == post.ID {
			p.ReplyTo = nil
		}
	}
	delete(r.s.posts, post.ID)
	if t, ok := r.s.threads[stored.Thread]; ok {
		t.Replies--
		if stored.Image != "" {
			t.Images--
		}
	}
	return nil
}

type memChats struct{ s *memStore }

func (r memChats) CreateRequest(_ context.Context, req *models.ChatRequest) (*models.ChatRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.requests {
		if existing.From == req.From && existing.To == req.To {
			return nil, common.ErrorConflict
		}
	}
	req.ID = r.s.id("requests")
	cp := *req
	r.s.requests[req.ID] = &cp
	return req, nil
}

func (r memChats) GetRequest(_ context.Context, id int64) (*models.ChatRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *req
	return &cp, nil
}

func (r memChats) PendingRequests(_ context.Context, userID int64) ([]models.ChatRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.ChatRequest
	for _, req := range r.s.requests {
		if req.To == userID && !req.Accepted {
			list = append(list, *req)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r memChats) AcceptRequest(_ context.Context, id int64, now time.Time) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if req.Accepted {
		return nil, common.ErrorAlreadyAccepted
	}
	req.Accepted = true
	chat := &models.Chat{ID: r.s.id("chats"), User1: req.From, User2: req.To, Last: now}
	r.s.chats[chat.ID] = chat
	cp := *chat
	return &cp, nil
}

func (r memChats) DeleteRequest(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.requests, id)
	return nil
}

func (r memChats) GetChat(_ context.Context, id int64) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.chats[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *chat
	return &cp, nil
}

func (r memChats) ListChats(_ context.Context, userID int64, page int) ([]models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Chat
	for _, chat := range r.s.chats {
		if chat.Member(userID) {
			list = append(list, *chat)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Last.After(list[j].Last) })
	return paginate(list, page, chats.ChatPageSize), nil
}

func (r memChats) CreateMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.chats[msg.Chat]
	if !ok {
		return nil, common.ErrorNotFound
	}
	msg.ID = r.s.id("messages")
	cp := *msg
	r.s.messages[msg.ID] = &cp
	chat.Last = msg.Sent
	return msg, nil
}

func (r memChats) ListMessages(_ context.Context, chatID int64, page int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.Message
	for _, msg := range r.s.messages {
		if msg.Chat == chatID {
			list = append(list, *msg)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Sent.Equal(list[j].Sent) {
			return list[i].Sent.After(list[j].Sent)
		}
		return list[i].ID > list[j].ID
	})
	return paginate(list, page, chats.MessagePageSize), nil
}
