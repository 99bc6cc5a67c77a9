package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"terracurve/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	got []models.Event
	err error
}

func (r *recorder) Publish(_ context.Context, e models.Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestNew(t *testing.T) {
	e := New(models.EventDaySelected, "gecko", Day(42), "")
	assert.Len(t, e.ID, 36)
	assert.Equal(t, models.EventDaySelected, e.Type)
	require.NotNil(t, e.Day)
	assert.Equal(t, 42, *e.Day)
	assert.False(t, e.Timestamp.IsZero())
	assert.NotEqual(t, e.ID, New(models.EventDaySelected, "gecko", nil, "").ID)
}

func TestMulti(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("down")}
	m := Multi{ok, nil, bad}

	err := m.Publish(context.Background(), New(models.EventCurveEdited, "", nil, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, bad.got, 1)

	assert.NoError(t, Nop{}.Publish(context.Background(), models.Event{}))
}

type fakeStream struct {
	added   []*redis.XAddArgs
	addErr  error
	streams []redis.XStream
	readErr error
	acked   []string
	groups  int
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", f.addErr)
}

func (f *fakeStream) XGroupCreateMkStream(context.Context, string, string, string) *redis.StatusCmd {
	f.groups++
	return redis.NewStatusResult("", errors.New("BUSYGROUP Consumer Group name already exists"))
}

func (f *fakeStream) XReadGroup(context.Context, *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return redis.NewXStreamSliceCmdResult(f.streams, f.readErr)
}

func (f *fakeStream) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func TestRedisPublisher(t *testing.T) {
	fake := &fakeStream{}
	p := NewRedisPublisher(fake, "terracurve_events")

	e := New(models.EventProfileSaved, "gecko", nil, "saved")
	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, fake.added, 1)
	assert.Equal(t, "terracurve_events", fake.added[0].Stream)

	values := fake.added[0].Values.(map[string]interface{})
	decoded, err := DecodeMessage(redis.XMessage{ID: "1-0", Values: values})
	require.NoError(t, err)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "gecko", decoded.Profile)

	fake.addErr = errors.New("connection refused")
	assert.Error(t, p.Publish(context.Background(), e))
}

func TestDecodeMessage_Invalid(t *testing.T) {
	_, err := DecodeMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = DecodeMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": "{"}})
	assert.Error(t, err)
}

func message(t *testing.T, id string, e models.Event) redis.XMessage {
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"data": string(data)}}
}

func TestConsumerPoll(t *testing.T) {
	fake := &fakeStream{streams: []redis.XStream{{
		Stream: "terracurve_events",
		Messages: []redis.XMessage{
			message(t, "1-0", New(models.EventDayCommitted, "", Day(3), "")),
			{ID: "2-0", Values: map[string]interface{}{"data": "garbage"}},
			message(t, "3-0", New(models.EventYearApplied, "", nil, "")),
		},
	}}}
	c := NewConsumer(fake, "terracurve_events", "archive", "store-1", zap.NewNop())

	var handled []models.Event
	err := c.Poll(context.Background(), func(_ context.Context, batch []models.Event) error {
		handled = append(handled, batch...)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, handled, 2)
	assert.Equal(t, []string{"1-0", "2-0", "3-0"}, fake.acked)
}

func TestConsumerPoll_HandlerFailureSkipsAck(t *testing.T) {
	fake := &fakeStream{streams: []redis.XStream{{
		Messages: []redis.XMessage{message(t, "1-0", New(models.EventDayCommitted, "", nil, ""))},
	}}}
	c := NewConsumer(fake, "s", "g", "n", zap.NewNop())

	err := c.Poll(context.Background(), func(context.Context, []models.Event) error {
		return errors.New("db down")
	})
	require.Error(t, err)
	assert.Empty(t, fake.acked)
}

func TestConsumerPoll_Empty(t *testing.T) {
	fake := &fakeStream{readErr: redis.Nil}
	c := NewConsumer(fake, "s", "g", "n", zap.NewNop())
	assert.NoError(t, c.Poll(context.Background(), func(context.Context, []models.Event) error {
		t.Error("handler called without messages")
		return nil
	}))
}

func TestConsumerRun_StopsOnCancel(t *testing.T) {
	fake := &fakeStream{readErr: redis.Nil}
	c := NewConsumer(fake, "s", "g", "n", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, func(context.Context, []models.Event) error { return nil }) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, 1, fake.groups)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	sent := New(models.EventMonthChanged, "gecko", nil, "smoothed March")
	require.NoError(t, hub.Publish(ctx, sent))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "smoothed March", got.Message)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
