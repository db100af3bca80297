package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvIdentity(t *testing.T, ch <-chan *Identity) *Identity {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(time.Second):
		t.Fatal("no identity delivered")
		return nil
	}
}

func TestSessionResolveAuthenticated(t *testing.T) {
	gw := &fakeGateway{identity: &Identity{ID: "u1", Email: "u1@example.com"}}
	s := NewSession()

	_, ok := s.Current()
	assert.False(t, ok)

	require.NoError(t, s.Resolve(context.Background(), gw))
	assert.False(t, s.Resolving())

	got, ok := s.Current()
	require.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
}

func TestSessionResolveAnonymous(t *testing.T) {
	// a 401 degrades to (nil, nil): anonymous, not an error
	gw := &fakeGateway{}
	s := NewSession()

	require.NoError(t, s.Resolve(context.Background(), gw))

	got, ok := s.Current()
	require.True(t, ok)
	assert.Nil(t, got)
}

func TestSessionResolveErrorClearsResolving(t *testing.T) {
	gw := &fakeGateway{meErr: errors.New("operation failed: connection refused")}
	s := NewSession()

	assert.Error(t, s.Resolve(context.Background(), gw))
	assert.False(t, s.Resolving())

	got, ok := s.Current()
	require.True(t, ok)
	assert.Nil(t, got)
}

func TestSessionSubscribeDeliversEachChangeOnce(t *testing.T) {
	gw := &fakeGateway{identity: &Identity{ID: "u1"}}
	s := NewSession()

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Resolve(context.Background(), gw))
	got := recvIdentity(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)

	// no duplicate delivery for a single change
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra delivery: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionSlowSubscriberSeesLatestChange(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSession()

	ch, cancel := s.Subscribe()
	defer cancel()

	// push far more changes than the subscriber buffer holds without draining
	for i := 0; i < subscriberBuffer+4; i++ {
		gw.identity = &Identity{ID: fmt.Sprintf("u%d", i)}
		require.NoError(t, s.Resolve(context.Background(), gw))
	}
	require.NoError(t, s.SignOut(context.Background(), gw))

	// the final sign-out must be the last delivery, however far behind the
	// subscriber fell
	var last *Identity
	received := 0
drain:
	for {
		select {
		case id := <-ch:
			last = id
			received++
		default:
			break drain
		}
	}
	require.NotZero(t, received)
	assert.Nil(t, last)
}

func TestSessionSignOutObservedViaSubscription(t *testing.T) {
	gw := &fakeGateway{identity: &Identity{ID: "u1"}}
	s := NewSession()
	require.NoError(t, s.Resolve(context.Background(), gw))

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.SignOut(context.Background(), gw))
	assert.Equal(t, 1, gw.logouts)

	got := recvIdentity(t, ch)
	assert.Nil(t, got)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Nil(t, cur)
}

func TestSessionSignOutClearsEvenOnGatewayError(t *testing.T) {
	gw := &fakeGateway{identity: &Identity{ID: "u1"}, logoutErr: errors.New("operation failed: timeout")}
	s := NewSession()
	require.NoError(t, s.Resolve(context.Background(), gw))

	assert.Error(t, s.SignOut(context.Background(), gw))

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Nil(t, cur)
}

func TestSessionCancelStopsDelivery(t *testing.T) {
	gw := &fakeGateway{identity: &Identity{ID: "u1"}}
	s := NewSession()

	ch, cancel := s.Subscribe()
	cancel()

	// canceled channel is closed, and later changes do not panic
	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, s.Resolve(context.Background(), gw))
}

func TestSessionCloseIsDeterministic(t *testing.T) {
	s := NewSession()
	ch1, _ := s.Subscribe()
	ch2, _ := s.Subscribe()

	s.Close()

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)

	// close is idempotent and post-close subscribe yields a closed channel
	s.Close()
	ch3, cancel := s.Subscribe()
	defer cancel()
	_, open = <-ch3
	assert.False(t, open)
}

func TestSessionSignOutThenReconcilerClear(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	s := NewSession()
	r := NewReconciler()

	require.NoError(t, s.Resolve(context.Background(), gw))
	require.NoError(t, r.Load(context.Background(), gw, "", ""))
	require.Len(t, r.Bookmarks(), 3)

	require.NoError(t, s.SignOut(context.Background(), gw))
	r.Clear()
	assert.Empty(t, r.Bookmarks())

	// anonymous reloads stay empty
	require.NoError(t, r.Load(context.Background(), gw, "", ""))
	assert.Empty(t, r.Bookmarks())
}
