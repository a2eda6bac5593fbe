package fanout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/fairodds/internal/events"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	tests := []events.Event{
		events.New(events.EventMatchStarted, "m1", events.MatchStartedEvent{MatchID: "m1", HomeEG: 0.842}),
		events.New(events.EventMatchRestarted, "m1", events.MatchStartedEvent{MatchID: "m1"}),
		events.New(events.EventMinuteRecorded, "m1", events.MinuteRecordedEvent{MatchID: "m1", Minute: 5, TotalEG: 1.721}),
		events.New(events.EventValueFlagged, "m1", events.ValueFlaggedEvent{MatchID: "m1", Tier: "strong_value"}),
		events.New(events.EventMatchClosed, "m1", events.MatchClosedEvent{MatchID: "m1", Submitted: 3}),
	}
	for _, evt := range tests {
		t.Run(string(evt.Type), func(t *testing.T) {
			data, err := MarshalEvent(evt)
			require.NoError(t, err)
			got, err := UnmarshalEvent(data)
			require.NoError(t, err)
			assert.Equal(t, evt.Type, got.Type)
			assert.Equal(t, evt.ID, got.ID)
			assert.Equal(t, evt.MatchID, got.MatchID)
			assert.True(t, evt.Timestamp.Equal(got.Timestamp))
			assert.Equal(t, evt.Payload, got.Payload)
		})
	}
}

func TestUnmarshalEvent_Unknown(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"order_intent","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

func startServer(t *testing.T) (*events.Bus, *Server, string) {
	t.Helper()
	bus := events.NewBus()
	srv := NewServer(bus)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return bus, srv, strings.TrimPrefix(ts.URL, "http://")
}

func TestClient_ReceivesFilteredEvents(t *testing.T) {
	serverBus, srv, addr := startServer(t)

	localBus := events.NewBus()
	got := make(chan events.Event, 4)
	localBus.SubscribeAll(func(e events.Event) error {
		got <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewClient(addr, "m2", localBus).ConnectWithRetry(ctx)

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	serverBus.Publish(events.New(events.EventMinuteRecorded, "m1", events.MinuteRecordedEvent{MatchID: "m1", Minute: 3}))
	serverBus.Publish(events.New(events.EventMinuteRecorded, "m2", events.MinuteRecordedEvent{MatchID: "m2", Minute: 7}))

	select {
	case e := <-got:
		assert.Equal(t, "m2", e.MatchID)
		assert.Equal(t, 7, e.Payload.(events.MinuteRecordedEvent).Minute)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool { return srv.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_URL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws", NewClient("localhost:8080", "", nil).url())
	assert.Equal(t, "ws://localhost:8080/ws?match=abc", NewClient("localhost:8080", "abc", nil).url())
}
