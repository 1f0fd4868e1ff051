package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/traventa/tour-booking-api/internal/model"
)

// CheckoutSession is what the booking handler returns to the client
// so the frontend can redirect to the provider.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutProvider creates a payment session for one tour on behalf
// of a user. The real provider integration lives outside this repo;
// the core only depends on this interface.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, tour model.Tour, user model.User, successURL string) (CheckoutSession, error)
}

// LocalCheckout issues provider-shaped sessions without an external
// call. The uuid session id doubles as the booking reference.
type LocalCheckout struct{ BaseURL string }

func NewLocalCheckout(baseURL string) *LocalCheckout { return &LocalCheckout{BaseURL: baseURL} }

func (p *LocalCheckout) CreateSession(_ context.Context, tour model.Tour, user model.User, successURL string) (CheckoutSession, error) {
	id := uuid.NewString()
	return CheckoutSession{
		ID: id,
		URL: fmt.Sprintf("%s/checkout/%s?tour=%d&user=%d&success=%s",
			p.BaseURL, id, tour.ID, user.ID, successURL),
	}, nil
}
