package http

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/broadcast"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

func TestHealth(t *testing.T) {
	srv := NewServer(broadcast.NewHub(4))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStreamEventsDeliversFrames(t *testing.T) {
	hub := broadcast.NewHub(16)
	srv := NewServer(hub)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the subscription before publishing, then push one frame.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Publish(domain.StreamEvent{
		ID:   "evt_1",
		Kind: "run.start",
		Data: map[string]any{"run_id": "r1"},
	})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}

	assert.Equal(t, "id: evt_1", lines[0])
	assert.Equal(t, "event: run.start", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "data: "))
	assert.Contains(t, lines[2], `"run_id":"r1"`)
}

func TestStreamEventsUnsubscribesOnDisconnect(t *testing.T) {
	hub := broadcast.NewHub(16)
	srv := NewServer(hub)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/events")
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.SubscriberCount())

	resp.Body.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.SubscriberCount())
}
