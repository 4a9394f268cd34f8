// Package events holds the single-owner handlers behind the RabbitMQ
// queues and the role-change listener.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/notifications"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/queue"
	"membership-app/internal/infra/rolestore"
)

type SaleRecorder interface {
	RecordSale(ctx context.Context, in affiliate.SaleInput) (affiliate.Commission, bool, error)
}

type Notifier interface {
	Create(ctx context.Context, n *notifications.Notification) error
}

type Handlers struct {
	Sales  SaleRecorder
	Notify Notifier
}

// Register binds the handlers to their queues.
func (h *Handlers) Register(c *queue.Consumer) {
	c.Handle(queue.AffiliateSalesQueue, h.AffiliateSale)
	c.Handle(queue.SessionsBookedQueue, h.SessionBooked)
}

func (h *Handlers) AffiliateSale(ctx context.Context, body []byte) error {
	var ev queue.AffiliateSaleEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return queue.Permanent(fmt.Errorf("decode affiliate sale: %w", err))
	}

	commission, created, err := h.Sales.RecordSale(ctx, affiliate.SaleInput{
		IdempotencyKey: ev.IdempotencyKey,
		AffiliateCode:  affiliate.NormalizeCode(ev.AffiliateCode),
		BuyerUserID:    ev.BuyerUserID,
		BuyerEmail:     ev.BuyerEmail,
		PlanRole:       ev.PlanRole,
		AmountEUR:      ev.AmountEUR,
	})
	switch {
	case errors.Is(err, affiliate.ErrUnknownAffiliate), errors.Is(err, affiliate.ErrSelfReferral):
		logging.Log.Warn().Err(err).
			Str("code", ev.AffiliateCode).
			Str("key", ev.IdempotencyKey).
			Msg("affiliate sale skipped")
		return nil
	case err != nil:
		return err
	}

	if !created {
		logging.Log.Info().Str("key", ev.IdempotencyKey).Msg("affiliate sale already recorded")
		return nil
	}

	logging.Log.Info().
		Str("code", ev.AffiliateCode).
		Uint("affiliate_user_id", commission.AffiliateUserID).
		Float64("commission_eur", commission.AmountEUR).
		Msg("affiliate commission recorded")

	return h.Notify.Create(ctx, &notifications.Notification{
		UserID: commission.AffiliateUserID,
		Kind:   notifications.KindCommission,
		Title:  "You earned a commission",
		Body:   fmt.Sprintf("A referral bought the %s plan. Your commission: €%.2f.", ev.PlanRole, commission.AmountEUR),
	})
}

func (h *Handlers) SessionBooked(ctx context.Context, body []byte) error {
	var ev queue.SessionBookedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return queue.Permanent(fmt.Errorf("decode session booked: %w", err))
	}

	when := ev.StartsAt
	if t, err := time.Parse(time.RFC3339, ev.StartsAt); err == nil {
		when = t.Format("Mon 2 Jan 15:04 MST")
	}

	logging.Log.Info().Uint("slot_id", ev.SlotID).Uint("user_id", ev.UserID).Msg("expert session booked")

	return h.Notify.Create(ctx, &notifications.Notification{
		UserID: ev.UserID,
		Kind:   notifications.KindSessionBooked,
		Title:  "Session booked",
		Body:   fmt.Sprintf("%s with %s on %s (%d min).", ev.Topic, ev.ExpertName, when, ev.DurationMin),
	})
}

// WatchRoleChanges subscribes right away and returns the loop that writes a
// notification for each membership change made by this instance. Changes
// relayed from other instances are notified there.
func WatchRoleChanges(store *rolestore.Store, notify Notifier) func(ctx context.Context) {
	ch, cancel := store.Subscribe()
	origin := store.Origin()

	return func(ctx context.Context) {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Origin != origin {
					continue
				}
				if err := notifyRoleChange(ctx, notify, ev); err != nil {
					logging.Log.Error().Err(err).Str("subject", ev.Subject).Msg("role change notification failed")
				}
			}
		}
	}
}

func notifyRoleChange(ctx context.Context, notify Notifier, ev rolestore.RoleChanged) error {
	if ev.Previous == ev.Role {
		return nil
	}
	userID, ok := users.ParseSubject(ev.Subject)
	if !ok {
		return nil
	}
	details := roles.DetailsFor(ev.Role)
	return notify.Create(ctx, &notifications.Notification{
		UserID: userID,
		Kind:   notifications.KindRoleChanged,
		Title:  "Membership updated",
		Body:   fmt.Sprintf("Your membership is now %s.", details.Name),
	})
}
