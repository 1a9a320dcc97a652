package queue

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactEncoder produces the opaque scannable artifact attached to a
// ticket notification.  The reservation core treats the output as a
// blob; the concrete wire format (QR image, barcode, plain payload)
// belongs to the encoder.
type ArtifactEncoder interface {
	Encode(ticketID uint64, name, tier, transactionID string) ([]byte, error)
}

// Delivery is one participant's confirmation handed to the
// notification service, with the rendered artifact attached.
type Delivery struct {
	Name          string
	Email         string
	Phone         string
	Tier          string
	TransactionID string
	AmountCharged string
	Artifact      []byte
}

// DeliveryResult reports one delivery attempt.  Failures are recorded
// for observability only; they never affect the reservation.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NotificationService delivers one confirmation to a participant.
// Implementations wrap an email or messaging provider; the default
// implementation only records the attempt.
type NotificationService interface {
	Send(ctx context.Context, d Delivery) DeliveryResult
}

// PayloadEncoder renders the scan payload embedded in a ticket
// artifact: TKT-<id>-<TIER>-<NAME>.  The database row ID makes the
// payload unique, the tier and name allow a quick visual check at the
// door.  Image encoding of the payload is a presentation concern and
// lives outside this service.
type PayloadEncoder struct{}

func (PayloadEncoder) Encode(ticketID uint64, name, tier, transactionID string) ([]byte, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("artifact: ticket id is required")
	}
	payload := fmt.Sprintf("TKT-%d-%s-%s", ticketID,
		strings.ToUpper(tier), strings.ToUpper(strings.TrimSpace(name)))
	return []byte(payload), nil
}

// LogNotificationService appends every delivery attempt to
// logs/delivery.log.  It stands in for a real mail provider in
// development and keeps an audit trail in front of one in production.
type LogNotificationService struct{}

func (LogNotificationService) Send(_ context.Context, d Delivery) DeliveryResult {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return DeliveryResult{Error: fmt.Sprintf("mkdir logs: %v", err)}
	}
	fpath := filepath.Join("logs", "delivery.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return DeliveryResult{Error: fmt.Sprintf("open log file: %v", err)}
	}
	defer f.Close()

	line := fmt.Sprintf("Ticket delivered | txn=%s | tier=%s | to=\"%s\" <%s> | amount=%s | artifact=%s\n",
		d.TransactionID, d.Tier, d.Name, d.Email, d.AmountCharged, string(d.Artifact))
	if _, err := f.WriteString(line); err != nil {
		return DeliveryResult{Error: fmt.Sprintf("write log: %v", err)}
	}
	return DeliveryResult{Success: true}
}

var _ NotificationService = LogNotificationService{}

func logResult(txn, email string, res DeliveryResult) {
	if res.Success {
		log.Printf("delivery-consumer: delivered txn=%s to=%s", txn, email)
		return
	}
	log.Printf("delivery-consumer: delivery failed txn=%s to=%s: %s", txn, email, res.Error)
}
