package ginserver

import (
	"fmt"
	"time"

	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
)

const dateLayout = "2006-01-02"

// parseDate accepts date-only values and full RFC3339 timestamps; clients send
// both.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
}

type moneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type priceResponse struct {
	Nights     int           `json:"nights"`
	Nightly    moneyResponse `json:"nightly"`
	Subtotal   moneyResponse `json:"subtotal"`
	ServiceFee moneyResponse `json:"service_fee"`
	Taxes      moneyResponse `json:"taxes"`
	Total      moneyResponse `json:"total"`
}

func toPriceResponse(b pricing.Breakdown) priceResponse {
	return priceResponse{
		Nights:     b.Nights,
		Nightly:    moneyResponse{b.Nightly.Amount, b.Nightly.Currency},
		Subtotal:   moneyResponse{b.Subtotal.Amount, b.Subtotal.Currency},
		ServiceFee: moneyResponse{b.ServiceFee.Amount, b.ServiceFee.Currency},
		Taxes:      moneyResponse{b.Taxes.Amount, b.Taxes.Currency},
		Total:      moneyResponse{b.Total.Amount, b.Total.Currency},
	}
}

type reservationResponse struct {
	ID         string         `json:"id"`
	PropertyID string         `json:"property_id"`
	GuestID    string         `json:"guest_id"`
	HostID     string         `json:"host_id"`
	CheckIn    string         `json:"check_in"`
	CheckOut   string         `json:"check_out"`
	Guests     int            `json:"guests"`
	Adults     int            `json:"adults"`
	Children   int            `json:"children"`
	Infants    int            `json:"infants"`
	Price      priceResponse  `json:"price"`
	Policy     string         `json:"cancellation_policy"`
	State      string         `json:"state"`
	Reason     string         `json:"reason,omitempty"`
	Refund     *moneyResponse `json:"refund,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toReservationResponse(r *reservation.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		HostID:     r.HostID,
		CheckIn:    r.Range.CheckIn.Format(dateLayout),
		CheckOut:   r.Range.CheckOut.Format(dateLayout),
		Guests:     r.Guests,
		Adults:     r.Breakdown.Adults,
		Children:   r.Breakdown.Children,
		Infants:    r.Breakdown.Infants,
		Price:      toPriceResponse(r.Price),
		Policy:     string(r.Policy.Tier),
		State:      string(r.State),
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Refund != nil {
		resp.Refund = &moneyResponse{r.Refund.Amount, r.Refund.Currency}
	}
	return resp
}

func toReservationList(items []*reservation.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toReservationResponse(r))
	}
	return out
}
