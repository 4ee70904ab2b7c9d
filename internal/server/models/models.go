// Package models holds the persistent entities shared by repositories,
// services and the HTTP layer. Entities are plain values; all durable state
// lives in the persistence layer.
package models

import "time"

// User is an account row. Password stores hex(SHA-256(salt+password)),
// never the raw password. Accounts are created inactive and activated
// exactly once via the activation token.
type User struct {
	ID         int64
	Nickname   string
	Password   string
	Salt       string
	University int64
	ProfilePic string
	Email      string
	Female     bool
	Activated  bool
	Token      string
	Admin      bool
}

// Gender reports the wire form of the gender flag.
func (u *User) Gender() string {
	if u.Female {
		return "f"
	}
	return "m"
}

// Session is an ephemeral bearer credential bound to a user and the client
// IP it was issued to. Expire is Create plus one calendar month.
type Session struct {
	ID     int64
	IPAddr string
	Token  string
	Create time.Time
	Expire time.Time
	User   int64
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.Expire)
}

type University struct {
	ID         int64
	Name       string
	City       string
	Domain     string
	Suggestion string
}

// Board belongs to a university; university 1 groups the general boards
// every activated user is subscribed to.
type Board struct {
	ID         int64
	Memo       string
	Name       string
	University int64
}

// Thread carries denormalized reply/image counters that track the live
// post count exactly; they are maintained in the same transaction as the
// post insert or delete.
type Thread struct {
	ID      int64
	Anon    bool
	Title   string
	Text    string
	Image   string
	Pinned  bool
	Posted  time.Time
	Replies int64
	Images  int64
	Board   int64
	Author  int64
}

// ThreadParticipant links a user to a thread and carries the derived
// pseudonymous tag. At most one row exists per (thread, user) pair; the tag
// is computed once at first participation and never updated. The
// first-created row of a thread belongs to the thread author.
type ThreadParticipant struct {
	ID     int64
	Thread int64
	User   int64
	Follow bool
	AuthID string
}

// Post belongs to a thread; Image is empty when the post has no image and
// ReplyTo is nil when the post does not reply to another post.
type Post struct {
	ID      int64
	OP      bool
	Anon    bool
	Text    string
	Image   string
	Posted  time.Time
	ReplyTo *int64
	Thread  int64
	Author  int64
	Board   int64
}

// ChatRequest transitions pending -> accepted exactly once; an accepted
// request is superseded by a Chat.
type ChatRequest struct {
	ID       int64
	From     int64
	To       int64
	Accepted bool
}

type Chat struct {
	ID    int64
	User1 int64
	User2 int64
	Last  time.Time
}

// Member reports whether the given user takes part in the chat.
func (c *Chat) Member(userID int64) bool {
	return c.User1 == userID || c.User2 == userID
}

// Peer returns the other participant of the chat.
func (c *Chat) Peer(userID int64) int64 {
	if c.User1 == userID {
		return c.User2
	}
	return c.User1
}

type Message struct {
	ID    int64
	Chat  int64
	From  int64
	To    int64
	Text  string
	Image string
	Sent  time.Time
}
