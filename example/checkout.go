package main

import (
	"fmt"

	flowcore "github.com/flowcore/sdk-go"
	"github.com/google/uuid"
)

type PaymentRequest struct {
	UserID  string   `json:"userId"`
	Tickets []string `json:"tickets"`
}

type PaymentResponse struct {
	ID    string `json:"id"`
	Price int    `json:"price"`
}

const CheckoutServiceName = "Checkout"

var checkoutService = flowcore.
	NewService(CheckoutServiceName).
	Handler("Payment", flowcore.NewServiceHandler(payment))

func payment(ctx flowcore.Context, request PaymentRequest) (response PaymentResponse, err error) {
	id, err := flowcore.RunAs(ctx, func() (string, error) {
		return uuid.UUID(ctx.Rand().UUID()).String(), nil
	})
	response.ID = id
	if err != nil {
		return response, err
	}

	// We are a uniform shop where everything costs 30 USD
	// that is cheaper than the official example :P
	price := len(request.Tickets) * 30
	response.Price = price

	paymentSucceeds := ctx.Rand().Float64() < 0.5
	_, err = flowcore.RunAs(ctx, func() (bool, error) {
		log := ctx.Log().With().Str("uuid", id).Int("price", price).Logger()
		if paymentSucceeds {
			log.Info().Msg("payment succeeded")
			return true, nil
		}
		log.Error().Msg("payment failed")
		return false, fmt.Errorf("failed to pay")
	})
	if err != nil {
		return response, err
	}

	// todo: send email

	return response, nil
}
