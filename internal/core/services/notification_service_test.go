package services

import (
	"testing"
	"time"

	"koperasi-bci/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(id string, userID uint, role domain.Role) *SSEClient {
	return &SSEClient{
		ID:      id,
		UserID:  userID,
		Role:    role,
		Channel: make(chan SSEEvent, 10),
	}
}

func TestSSEHub_RegisterUnregister(t *testing.T) {
	hub := NewSSEHub()
	assert.Zero(t, hub.GetClientCount())

	client := newHubClient("c1", 1, domain.RoleMember)
	hub.Register(client)
	assert.Equal(t, 1, hub.GetClientCount())

	hub.Unregister("c1")
	assert.Zero(t, hub.GetClientCount())

	// The channel is closed on unregister so the writer loop ends.
	_, open := <-client.Channel
	assert.False(t, open)

	// Unregistering twice is a no-op.
	hub.Unregister("c1")
}

func TestSSEHub_SendToUser(t *testing.T) {
	hub := NewSSEHub()
	target := newHubClient("c1", 1, domain.RoleMember)
	other := newHubClient("c2", 2, domain.RoleMember)
	hub.Register(target)
	hub.Register(other)

	hub.SendToUser(1, SSEEvent{Event: "loan_decision", Data: "ok"})

	select {
	case ev := <-target.Channel:
		assert.Equal(t, "loan_decision", ev.Event)
	default:
		t.Fatal("target client received nothing")
	}

	select {
	case ev := <-other.Channel:
		t.Fatalf("other member received %q", ev.Event)
	default:
	}

	// Sending to a user with no connected client is a no-op.
	hub.SendToUser(99, SSEEvent{Event: "loan_decision"})
}

func TestSSEHub_BroadcastToAdmins(t *testing.T) {
	hub := NewSSEHub()
	admin1 := newHubClient("a1", 10, domain.RoleAdmin)
	admin2 := newHubClient("a2", 11, domain.RoleAdmin)
	member := newHubClient("m1", 1, domain.RoleMember)
	hub.Register(admin1)
	hub.Register(admin2)
	hub.Register(member)

	hub.BroadcastToAdmins(SSEEvent{Event: "loan_submitted"})

	for _, admin := range []*SSEClient{admin1, admin2} {
		select {
		case ev := <-admin.Channel:
			assert.Equal(t, "loan_submitted", ev.Event)
		default:
			t.Fatalf("admin %s received nothing", admin.ID)
		}
	}

	select {
	case <-member.Channel:
		t.Fatal("member received an admin broadcast")
	default:
	}
}

func TestSSEHub_FullChannelDoesNotBlock(t *testing.T) {
	hub := NewSSEHub()
	client := &SSEClient{
		ID:      "slow",
		UserID:  1,
		Role:    domain.RoleMember,
		Channel: make(chan SSEEvent), // no consumer, zero buffer
	}
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		hub.SendToUser(1, SSEEvent{Event: "payment_received"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on a slow client")
	}
}

func TestNotificationService_RoutesEvents(t *testing.T) {
	svc := NewNotificationService()
	member := newHubClient("m1", 1, domain.RoleMember)
	admin := newHubClient("a1", 10, domain.RoleAdmin)
	svc.Hub.Register(member)
	svc.Hub.Register(admin)

	svc.NotifyLoanSubmitted(7, "BCI-2026-A1B2C", 3_000_000)
	svc.NotifyLoanDecision(1, 7, domain.LoanApproved)
	svc.NotifyPaymentReceived(1, 7, 510_000, 2_490_000)
	svc.NotifyLoanClosed(1, 7)

	memberEvents := drain(member.Channel)
	adminEvents := drain(admin.Channel)

	require.Equal(t, []string{"loan_decision", "payment_received", "loan_closed"}, memberEvents)
	require.Equal(t, []string{"loan_submitted", "payment_received"}, adminEvents)
}

func drain(ch chan SSEEvent) []string {
	var events []string
	for {
		select {
		case ev := <-ch:
			events = append(events, ev.Event)
		default:
			return events
		}
	}
}
