package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/d60-Lab/likefeed/internal/model"
	"github.com/d60-Lab/likefeed/internal/repository"
)

type fakeChannel struct {
	mu      sync.Mutex
	open    bool
	sendErr error
	sent    [][]byte
}

func newFakeChannel() *fakeChannel { return &fakeChannel{open: true} }

func (c *fakeChannel) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, b)
	return nil
}

func (c *fakeChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeChannel) close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

func (c *fakeChannel) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

var errStoreDown = errors.New("store down")

// fakeStore 同时实现 PostOwners / Usernames / NotificationWriter
type fakeStore struct {
	mu        sync.Mutex
	owners    map[int64]int64
	names     map[int64]string
	insertErr error
	lookupErr error
	panicPost int64
	delay     time.Duration
	nextID    int64
	rows      []*model.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		owners: map[int64]int64{1: 1, 2: 2},
		names:  map[int64]string{1: "john", 2: "jane"},
	}
}

func (s *fakeStore) deps() Deps { return Deps{Posts: s, Users: s, Notifications: s} }

func (s *fakeStore) OwnerID(_ context.Context, postID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicPost != 0 && postID == s.panicPost {
		panic("boom")
	}
	if s.lookupErr != nil {
		return 0, s.lookupErr
	}
	owner, ok := s.owners[postID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return owner, nil
}

func (s *fakeStore) Username(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return name, nil
}

func (s *fakeStore) Insert(_ context.Context, userID int64, message string) (*model.Notification, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.nextID++
	n := &model.Notification{ID: s.nextID, UserID: userID, Message: message, CreatedAt: time.Now()}
	s.rows = append(s.rows, n)
	return n, nil
}

func (s *fakeStore) notifications() []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Notification(nil), s.rows...)
}

type result struct {
	ev      Event
	outcome Outcome
}

func collect(buf int) (func(Event, Outcome), <-chan result) {
	ch := make(chan result, buf)
	return func(ev Event, o Outcome) { ch <- result{ev: ev, outcome: o} }, ch
}
