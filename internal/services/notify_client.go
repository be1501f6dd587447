package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/events"
	"go.uber.org/zap"
)

// Notification is the payload posted to the messaging collaborator. It carries
// the event and the member's contact data; message wording is the receiver's job.
type Notification struct {
	Type        string     `json:"type"`
	Outcome     string     `json:"outcome"`
	CampaignID  uuid.UUID  `json:"campaign_id"`
	MemberID    uuid.UUID  `json:"member_id"`
	MemberName  string     `json:"member_name,omitempty"`
	MemberPhone string     `json:"member_phone,omitempty"`
	Slots       []int      `json:"slots"`
	Rejected    []int      `json:"rejected,omitempty"`
	SlotStart   *time.Time `json:"slot_start,omitempty"`
	At          time.Time  `json:"at"`
}

// NotifyClient posts notifications to an HTTP webhook.
type NotifyClient struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
}

func NewNotifyClient(webhookURL string, timeout time.Duration, log *zap.Logger) *NotifyClient {
	return &NotifyClient{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *NotifyClient) Send(ctx context.Context, n Notification) error {
	if c.webhookURL == "" {
		c.log.Info("notification (no webhook configured)",
			zap.String("type", n.Type),
			zap.String("member_id", n.MemberID.String()),
			zap.Ints("slots", n.Slots),
		)
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification webhook unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notification webhook returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// Dispatcher turns signup events into notifications for the member involved.
type Dispatcher struct {
	members MemberResolver
	client  *NotifyClient
	log     *zap.Logger
}

func NewDispatcher(members MemberResolver, client *NotifyClient, log *zap.Logger) *Dispatcher {
	return &Dispatcher{members: members, client: client, log: log}
}

// Dispatch delivers one event. Delivery failures are returned for logging only;
// the reservation behind the event is already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.Event) error {
	n := Notification{
		Type:       e.Type,
		Outcome:    e.Outcome,
		CampaignID: e.CampaignID,
		MemberID:   e.MemberID,
		Slots:      e.Slots,
		Rejected:   e.Rejected,
		SlotStart:  e.SlotStart,
		At:         e.At,
	}

	m, err := d.members.Resolve(ctx, e.MemberID.String())
	if err != nil {
		d.log.Warn("member lookup failed, sending without contact",
			zap.String("member_id", e.MemberID.String()), zap.Error(err))
	} else {
		n.MemberName = m.Name
		n.MemberPhone = m.Phone
	}

	return d.client.Send(ctx, n)
}
