package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMembers map[uuid.UUID]models.Member

func (s stubMembers) Resolve(_ context.Context, identifier string) (*models.Member, error) {
	id, err := uuid.Parse(identifier)
	if err != nil {
		return nil, err
	}
	m, ok := s[id]
	if !ok {
		return nil, errors.New("member not found")
	}
	return &m, nil
}

func TestNotifyClient_Send(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewNotifyClient(srv.URL+"/", time.Second, zap.NewNop())
	n := Notification{Type: events.EventSignupReserved, MemberID: uuid.New(), Slots: []int{3}}
	require.NoError(t, client.Send(context.Background(), n))
	assert.Equal(t, n.MemberID, got.MemberID)
	assert.Equal(t, []int{3}, got.Slots)
}

func TestNotifyClient_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewNotifyClient(srv.URL, time.Second, zap.NewNop())
	err := client.Send(context.Background(), Notification{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyClient_NoWebhookOnlyLogs(t *testing.T) {
	client := NewNotifyClient("", time.Second, zap.NewNop())
	assert.NoError(t, client.Send(context.Background(), Notification{}))
}

func TestDispatcher_AttachesContact(t *testing.T) {
	member := models.Member{ID: uuid.New(), Name: "Ana", Phone: "5511987654321"}
	received := make(chan Notification, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n Notification
		_ = json.NewDecoder(r.Body).Decode(&n)
		received <- n
	}))
	defer srv.Close()

	d := NewDispatcher(stubMembers{member.ID: member}, NewNotifyClient(srv.URL, time.Second, zap.NewNop()), zap.NewNop())

	start := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	err := d.Dispatch(context.Background(), events.Event{
		Type:       events.EventSlotReminder,
		CampaignID: uuid.New(),
		MemberID:   member.ID,
		Slots:      []int{1},
		Outcome:    events.OutcomeReminder,
		SlotStart:  &start,
	})
	require.NoError(t, err)

	n := <-received
	assert.Equal(t, "Ana", n.MemberName)
	assert.Equal(t, "5511987654321", n.MemberPhone)
	require.NotNil(t, n.SlotStart)
	assert.True(t, n.SlotStart.Equal(start))

	// Unknown members are still notified, without contact data.
	require.NoError(t, d.Dispatch(context.Background(), events.Event{Type: events.EventSignupCancelled, MemberID: uuid.New()}))
	n = <-received
	assert.Empty(t, n.MemberPhone)
}
