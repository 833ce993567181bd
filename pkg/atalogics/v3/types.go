package v3

import "encoding/json"

// OfferRequest asks for offers between two addresses.
type OfferRequest struct {
	CatchAddress string `json:"catch_address"`
	DropAddress  string `json:"drop_address"`
	CatchDate    string `json:"catch_date,omitempty"`
	DropDate     string `json:"drop_date,omitempty"`
}

// Window is a time window of an offer. Times are RFC 3339.
type Window struct {
	From       string `json:"from"`
	To         string `json:"to"`
	UsableTill string `json:"usable_till"`
}

// Offer is one bookable offer.
type Offer struct {
	OfferKey    string          `json:"offer_key"`
	CatchWindow Window          `json:"catch_window"`
	DropWindow  Window          `json:"drop_window"`
	Price       json.RawMessage `json:"price,omitempty"`
}

// OffersResult is the body of an offers response.
type OffersResult struct {
	Offers []Offer `json:"offers"`
}

// DeliveryAreasResult is the body of a city lookup.
type DeliveryAreasResult struct {
	Key           string            `json:"key"`
	DeliveryAreas []json.RawMessage `json:"delivery_areas"`
}
