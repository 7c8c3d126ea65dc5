package p2p

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaychain/relay"
)

func startRelay(t *testing.T) (*relay.Hub, string) {
	t.Helper()

	hub := relay.NewHub(nil, nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func runClient(t *testing.T, cfg ClientConfig) *Client {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(cfg)
	done := make(chan error, 1)
	go func() {
		done <- client.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("client did not stop")
		}
	})
	return client
}

func TestClientSendNotConnected(t *testing.T) {
	client := NewClient(ClientConfig{URL: "ws://127.0.0.1:1"})
	require.Equal(t, Disconnected, client.State())
	require.ErrorIs(t, client.Send(&RequestBlockchain{}), ErrNotConnected)
}

func TestClientExchange(t *testing.T) {
	hub, url := startRelay(t)

	rec := newRecorder()
	sender := runClient(t, ClientConfig{URL: url, ReconnectDelay: 10 * time.Millisecond})
	runClient(t, ClientConfig{URL: url, ReconnectDelay: 10 * time.Millisecond, Handler: rec})

	require.Eventually(t, func() bool {
		return sender.State() == Connected && hub.PeerCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	block := testBlock()
	require.NoError(t, sender.Send(&NewBlock{Block: block}))

	select {
	case msg := <-rec.msgs:
		require.Equal(t, &NewBlock{Block: block}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("message not relayed")
	}
}

func TestClientReconnects(t *testing.T) {
	hub, url := startRelay(t)

	var connects atomic.Int32
	client := runClient(t, ClientConfig{
		URL:            url,
		ReconnectDelay: 10 * time.Millisecond,
		OnConnect: func() {
			connects.Add(1)
		},
	})

	require.Eventually(t, func() bool {
		return connects.Load() == 1 && hub.PeerCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Dropping every peer at the relay forces a reconnect.
	hub.Close()

	require.Eventually(t, func() bool {
		return connects.Load() >= 2 && client.State() == Connected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientRetriesDial(t *testing.T) {
	var connects atomic.Int32
	client := runClient(t, ClientConfig{
		URL:            "ws://127.0.0.1:1",
		ReconnectDelay: 10 * time.Millisecond,
		OnConnect: func() {
			connects.Add(1)
		},
	})

	time.Sleep(50 * time.Millisecond)
	require.NotEqual(t, Connected, client.State())
	require.Zero(t, connects.Load())
}
