package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ticketry/ticket-platform/internal/model"
)

// emailRe accepts the basic local@domain.tld shape.  Full RFC 5322
// parsing is deliberately out of scope; the address only has to be
// plausible enough to attempt delivery.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validated carries the normalized values produced by request
// validation: the parsed tier, the parsed amount and the participant
// list with whitespace trimmed and emails lowercased.
type validated struct {
	tier         model.Tier
	amount       decimal.Decimal
	participants []model.Participant
}

// validateRequest enforces every precondition of the reservation
// transaction before any storage is touched.  A violation fails fast
// with an InvalidInput error and leaves no side effects.
func validateRequest(req Request) (validated, *Error) {
	var v validated

	tier, ok := model.ParseTier(req.Tier)
	if !ok {
		return v, invalidInput("unknown tier %q", req.Tier)
	}
	v.tier = tier

	if req.Quantity < 1 {
		return v, invalidInput("quantity must be at least 1")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return v, invalidInput("transactionId is required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.AmountCharged))
	if err != nil {
		return v, invalidInput("amountCharged %q is not a decimal", req.AmountCharged)
	}
	if !amount.IsPositive() {
		return v, invalidInput("amountCharged must be positive")
	}
	v.amount = amount

	if len(req.Participants) != req.Quantity {
		return v, invalidInput("participant count %d does not match quantity %d",
			len(req.Participants), req.Quantity)
	}

	v.participants = make([]model.Participant, 0, len(req.Participants))
	for i, p := range req.Participants {
		name := strings.TrimSpace(p.Name)
		email := strings.ToLower(strings.TrimSpace(p.Email))
		phone := strings.TrimSpace(p.Phone)
		if name == "" || email == "" || phone == "" {
			return v, invalidInput("participant %d is missing required fields", i+1)
		}
		if !emailRe.MatchString(email) {
			return v, invalidInput("participant %d has an invalid email", i+1)
		}
		v.participants = append(v.participants, model.Participant{Name: name, Email: email, Phone: phone})
	}
	return v, nil
}
