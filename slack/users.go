package slack

import (
	"cmp"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"sync"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/storage"
)

// User is the subset of users.info this package keeps.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Profile  struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
	} `json:"profile"`
}

// DisplayName prefers the profile's display name, then the real name.
func (u User) DisplayName() string {
	return cmp.Or(u.Profile.DisplayName, u.RealName, u.Profile.RealName, u.Name, u.ID)
}

// UserCache remembers users in memory and, when given a store, as one
// JSON document per user id.
type UserCache struct {
	store storage.Storage

	mu    sync.Mutex
	users map[string]User
}

// NewUserCache returns a cache backed by store. A nil store keeps users in
// memory only.
func NewUserCache(store storage.Storage) *UserCache {
	return &UserCache{store: store, users: make(map[string]User)}
}

func userPath(id string) string { return id + ".json" }

// Get returns a cached user. Unreadable documents count as misses.
func (uc *UserCache) Get(ctx context.Context, id string) (User, bool) {
	uc.mu.Lock()
	u, ok := uc.users[id]
	uc.mu.Unlock()
	if ok || uc.store == nil {
		return u, ok
	}
	data, err := storage.ReadDocument(ctx, uc.store, userPath(id), 64<<10)
	if err != nil || json.Unmarshal(data, &u) != nil || u.ID == "" {
		return User{}, false
	}
	uc.mu.Lock()
	uc.users[id] = u
	uc.mu.Unlock()
	return u, true
}

// Put caches u in memory and on disk.
func (uc *UserCache) Put(ctx context.Context, u User) error {
	uc.mu.Lock()
	uc.users[u.ID] = u
	uc.mu.Unlock()
	if uc.store == nil {
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return storage.WriteDocument(ctx, uc.store, userPath(u.ID), data)
}

// UserName resolves a user id to a display name. Lookup failures are
// logged and fall back to the id.
func (c *Client) UserName(ctx context.Context, id string) string {
	if id == "" {
		return "unknown_user"
	}
	if u, ok := c.users.Get(ctx, id); ok {
		return u.DisplayName()
	}
	env, err := c.call(ctx, "users.info", url.Values{"user": {id}})
	if err != nil || env.User == nil {
		c.log.WithError(err).Warn("user lookup failed", logger.Fields("user", id))
		return id
	}
	u := *env.User
	u.ID = cmp.Or(u.ID, id)
	if err := c.users.Put(ctx, u); err != nil {
		c.log.WithError(err).Warn("user cache write failed", logger.Fields("user", id))
	}
	return u.DisplayName()
}

var mention = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// ResolveMentions rewrites <@U123> to @name.
func (c *Client) ResolveMentions(ctx context.Context, text string) string {
	return mention.ReplaceAllStringFunc(text, func(m string) string {
		return "@" + c.UserName(ctx, mention.FindStringSubmatch(m)[1])
	})
}
