package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/reconcile"
)

// RecordPayment runs the full payment-submission flow: record the payment,
// then extend the member's membership by one calendar month. A member with
// no end date on file skips the renewal; that is a data condition, not a
// failure. Errors from either step surface to the caller so the submitting
// view never claims success falsely. When renewal fails the payment already
// exists; the returned payment is non-nil alongside the error.
func (c *Client) RecordPayment(ctx context.Context, member model.Member, in PaymentInput) (*model.Payment, error) {
	in.MemberID = member.ID

	payment, err := c.CreatePayment(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	if member.MembershipEndDate == nil {
		return payment, nil
	}

	renewed := reconcile.RenewEndDate(*member.MembershipEndDate)
	_, err = c.UpdateMember(ctx, member.ID, map[string]any{
		"membership_end_date": renewed.Format(time.RFC3339),
	})
	if err != nil {
		return payment, fmt.Errorf("payment recorded but renewal failed: %w", err)
	}

	return payment, nil
}
