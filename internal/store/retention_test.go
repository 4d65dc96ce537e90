package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

func TestJanitorSweepsRegisteredStores(t *testing.T) {
	events := NewEventLog(WithEventRetention(time.Minute, 0))
	events.Append(&domain.Event{Topic: "plan", At: time.Now().Add(-time.Hour)})
	events.Append(&domain.Event{Topic: "plan", At: time.Now()})

	j := NewJanitor(20 * time.Millisecond)
	j.Register("events", events)
	require.NoError(t, j.Start())
	defer j.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events.Size() == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, events.Size())
}

func TestJanitorDisabledInterval(t *testing.T) {
	j := NewJanitor(0)
	j.Register("events", NewEventLog())
	require.NoError(t, j.Start())
	j.Stop()
}
