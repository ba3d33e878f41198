package services

import (
	"fmt"
	"log"
	"sync"

	"koperasi-bci/internal/core/domain"
)

// ============================================================
// SSE Hub + notification triggers
// ============================================================

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID      string
	UserID  uint
	Role    domain.Role
	Channel chan SSEEvent
}

// SSEHub manages all SSE connections
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client
func (h *SSEHub) Register(client *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (user=%d, role=%s) | total=%d",
		client.ID, client.UserID, client.Role, len(h.clients))
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// SendToUser sends an event to a specific member's connections
func (h *SSEHub) SendToUser(userID uint, event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Channel <- event:
				log.Printf("📡 SSE sent [%s] to user %d", event.Event, userID)
			default:
				log.Printf("⚠️ SSE channel full for user %d, skipping", userID)
			}
		}
	}
}

// BroadcastToAdmins sends an event to every connected admin
func (h *SSEHub) BroadcastToAdmins(event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.Role == domain.RoleAdmin {
			select {
			case client.Channel <- event:
				sent++
			default:
				log.Printf("⚠️ SSE channel full for client %s, skipping", client.ID)
			}
		}
	}
	if sent > 0 {
		log.Printf("📡 SSE broadcast [%s] to %d admins", event.Event, sent)
	}
}

// GetClientCount returns the number of connected clients
func (h *SSEHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// NotificationService — orchestrates SSE delivery
// ============================================================

// NotificationService pushes loan and payment events to connected clients.
// Delivery is best effort: a slow or absent consumer never blocks or fails
// the operation that triggered the event.
type NotificationService struct {
	Hub *SSEHub
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	return &NotificationService{
		Hub: NewSSEHub(),
	}
}

// NotifyLoanSubmitted — when a member submits a new application
func (n *NotificationService) NotifyLoanSubmitted(loanID uint, memberNo string, amount int64) {
	data := map[string]interface{}{
		"loan_id":   loanID,
		"member_no": memberNo,
		"amount":    amount,
		"message":   fmt.Sprintf("Pengajuan pinjaman baru dari %s", memberNo),
	}
	n.Hub.BroadcastToAdmins(SSEEvent{Event: "loan_submitted", Data: data})
}

// NotifyLoanDecision — when an admin approves or rejects an application
func (n *NotificationService) NotifyLoanDecision(userID uint, loanID uint, status domain.LoanStatus) {
	var message string
	switch status {
	case domain.LoanApproved:
		message = "Pengajuan pinjaman Anda telah disetujui"
	case domain.LoanRejected:
		message = "Pengajuan pinjaman Anda ditolak"
	default:
		message = fmt.Sprintf("Status pinjaman Anda: %s", status.Display())
	}

	data := map[string]interface{}{
		"loan_id": loanID,
		"status":  string(status),
		"message": message,
	}
	n.Hub.SendToUser(userID, SSEEvent{Event: "loan_decision", Data: data})
}

// NotifyPaymentReceived — after a payment settles against the balance
func (n *NotificationService) NotifyPaymentReceived(userID uint, loanID uint, amount int64, outstanding int64) {
	data := map[string]interface{}{
		"loan_id":     loanID,
		"amount":      amount,
		"outstanding": outstanding,
		"message":     fmt.Sprintf("Pembayaran Rp %d diterima, sisa Rp %d", amount, outstanding),
	}
	n.Hub.SendToUser(userID, SSEEvent{Event: "payment_received", Data: data})
	n.Hub.BroadcastToAdmins(SSEEvent{Event: "payment_received", Data: data})
}

// NotifyLoanClosed — when the outstanding balance reaches zero
func (n *NotificationService) NotifyLoanClosed(userID uint, loanID uint) {
	data := map[string]interface{}{
		"loan_id": loanID,
		"message": "Selamat! Pinjaman Anda telah lunas",
	}
	n.Hub.SendToUser(userID, SSEEvent{Event: "loan_closed", Data: data})
}

// NotifyInstallmentDue — morning reminder for active loans
func (n *NotificationService) NotifyInstallmentDue(userID uint, loanID uint, monthly int64) {
	data := map[string]interface{}{
		"loan_id": loanID,
		"monthly": monthly,
		"message": fmt.Sprintf("Pengingat: angsuran bulan ini Rp %d", monthly),
	}
	n.Hub.SendToUser(userID, SSEEvent{Event: "installment_due", Data: data})
}
