package net

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

const waitFor = 5 * time.Second

func snapshotWith(n int) storage.Snapshot {
	snap := storage.Empty()
	for i := 1; i <= n; i++ {
		it := state.NewNote(float64(i*10), 0, 100, 100, "#fff59d", 16)
		it.ID, it.Z = int64(i), int64(i)
		snap.Items = append(snap.Items, it)
	}
	return snap
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + boardPath
}

func follow(t *testing.T, ctx context.Context, link string) <-chan storage.Snapshot {
	t.Helper()
	f, err := Dial(ctx, link)
	require.NoError(t, err)
	got := make(chan storage.Snapshot, 8)
	go func() {
		_ = f.Run(ctx, func(s storage.Snapshot) { got <- s })
	}()
	return got
}

func receive(t *testing.T, got <-chan storage.Snapshot) storage.Snapshot {
	t.Helper()
	select {
	case s := <-got:
		return s
	case <-time.After(waitFor):
		t.Fatal("no snapshot received")
	}
	return storage.Snapshot{}
}

func TestHub_LateFollowerGetsLatest(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, hub.Publish(snapshotWith(1)))
	require.NoError(t, hub.Publish(snapshotWith(2)))

	got := follow(t, ctx, wsURL(srv))
	assert.Len(t, receive(t, got).Items, 2)

	assert.Eventually(t, func() bool { return hub.Followers() == 1 }, waitFor, 10*time.Millisecond)

	require.NoError(t, hub.Publish(snapshotWith(3)))
	assert.Len(t, receive(t, got).Items, 3)
}

func TestHub_CloseEndsFollower(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	f, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return hub.Followers() == 1 }, waitFor, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background(), func(storage.Snapshot) {}) }()

	hub.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("follower did not stop")
	}
	assert.Zero(t, hub.Followers())
	assert.NoError(t, hub.Publish(snapshotWith(1)))
}

func TestFollower_AcceptsOnlyNewer(t *testing.T) {
	f := &Follower{}
	rev := func(l uint64, site string) Envelope {
		return Envelope{Type: MsgSnapshot, Revision: state.Revision{Lamport: l, Site: site}}
	}

	assert.True(t, f.accept(rev(5, "b")))
	assert.False(t, f.accept(rev(5, "b")))
	assert.False(t, f.accept(rev(4, "z")))
	assert.True(t, f.accept(rev(5, "c")))
	assert.True(t, f.accept(rev(9, "a")))
	assert.False(t, f.accept(Envelope{Type: "cursor", Revision: state.Revision{Lamport: 99}}))

	assert.Greater(t, state.Stamp().Lamport, uint64(9))
}

func TestHost_ServeAndFollow(t *testing.T) {
	host, err := StartHost(HostConfig{Port: 0})
	require.NoError(t, err)
	defer host.Close(context.Background())

	assert.NotZero(t, host.Port())
	assert.True(t, strings.HasPrefix(host.Link(), LinkScheme))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := follow(t, ctx, fmt.Sprintf("127.0.0.1:%d", host.Port()))
	assert.Eventually(t, func() bool { return host.Followers() == 1 }, waitFor, 10*time.Millisecond)

	snap := snapshotWith(2)
	snap.View.Zoom = 2
	require.NoError(t, host.Publish(snap))

	recv := receive(t, got)
	assert.Len(t, recv.Items, 2)
	assert.Equal(t, 2.0, recv.View.Zoom)
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "researchboard://192.168.1.4:8765", want: "ws://192.168.1.4:8765/board"},
		{in: "researchboard://192.168.1.4:8765/", want: "ws://192.168.1.4:8765/board"},
		{in: "10.0.0.2:9000", want: "ws://10.0.0.2:9000/board"},
		{in: "ws://host:1/custom", want: "ws://host:1/custom"},
		{in: "researchboard://nohost", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := WebSocketURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "researchboard://10.0.0.2:8765", ShareLink("10.0.0.2", 8765))
}
