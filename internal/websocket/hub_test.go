package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"community-service/internal/authz"
	"community-service/internal/models"
	"community-service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
	fail   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubDeliversToAllowedClients(t *testing.T) {
	logger.InitNopLoggers()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()

	admin := &fakeConn{}
	owner := &fakeConn{}
	stranger := &fakeConn{}
	broken := &fakeConn{fail: true}
	hub.Register(&Client{Conn: admin, Principal: authz.Principal{AccountID: 1, Role: models.RoleAdmin}})
	hub.Register(&Client{Conn: owner, Principal: authz.Principal{AccountID: 4, Role: models.RoleClient}})
	hub.Register(&Client{Conn: stranger, Principal: authz.Principal{AccountID: 5, Role: models.RoleClient}})
	hub.Register(&Client{Conn: broken, Principal: authz.Principal{AccountID: 6, Role: models.RoleStaff}})

	hub.Publish(models.TaskEvent{Type: models.TaskCreated, TaskID: 9, StaffUserID: 2, ClientUserID: 4})

	assert.Eventually(t, func() bool { return admin.count() == 1 && owner.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, broken.isClosed, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, stranger.count())

	cancel()
	<-done
	assert.True(t, admin.isClosed())
	assert.True(t, stranger.isClosed())
}

func TestPublishDoesNotBlockWithoutRunner(t *testing.T) {
	logger.InitNopLoggers()
	hub := NewHub()
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(models.TaskEvent{TaskID: i})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	logger.InitNopLoggers()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()
	cancel()
	<-done

	late := &fakeConn{}
	client := &Client{Conn: late, Principal: authz.Principal{AccountID: 1, Role: models.RoleAdmin}}
	hub.Register(client)
	hub.Unregister(client)
	assert.True(t, late.isClosed())
}
