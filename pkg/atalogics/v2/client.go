// Package v2 is the client for version 2 of the ATALOGICS API.
//
// Address checks, multi address checks, next timeslots and next delivery
// time are cached (when a cache store is configured) under keys prefixed
// with "V2_". Offers and shipment purchases always go to the network.
package v2

import (
	"context"
	"net/http"
	"time"

	"github.com/matzehuels/atalogics/pkg/atalogics"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/errors"
)

// Version is the API version served by this package.
const Version = 2

const (
	pathAddressCheck      = "/addresses/single/check"
	pathMultiAddressCheck = "/addresses/multi/check"
	pathNextTimeslots     = "/next_timeslots"
	pathNextDeliveryTime  = "/next_delivery_time"
	pathOffers            = "/offers"
	pathShipments         = "/shipments"
)

// Client talks to /api/v2.
type Client struct {
	*atalogics.Client
}

// New creates a v2 client. See [atalogics.New].
func New(ctx context.Context, cfg config.Config, opts ...atalogics.Option) (*Client, error) {
	c, err := atalogics.New(ctx, cfg, Version, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: c}, nil
}

// AddressCheck checks whether an address exists and lies in a delivery area.
func (c *Client) AddressCheck(ctx context.Context, addr Address) (*atalogics.Response, error) {
	key := atalogics.CacheKey(pathAddressCheck, addr.keyFields()...)
	return c.Execute(ctx, http.MethodPost, pathAddressCheck, addr, atalogics.WithCacheKey(key))
}

// MultiAddressCheck checks several addresses at once.
func (c *Client) MultiAddressCheck(ctx context.Context, addrs []Address) (*atalogics.Response, error) {
	var fields []string
	for _, a := range addrs {
		fields = append(fields, a.keyFields()...)
	}
	key := atalogics.CacheKey(pathMultiAddressCheck, fields...)
	body := multiAddressRequest{Addresses: addrs}
	if body.Addresses == nil {
		body.Addresses = []Address{}
	}
	return c.Execute(ctx, http.MethodPost, pathMultiAddressCheck, body, atalogics.WithCacheKey(key))
}

// InDeliveryRange reports the success flag of an address check.
func (c *Client) InDeliveryRange(ctx context.Context, addr Address) (bool, error) {
	resp, err := c.AddressCheck(ctx, addr)
	if err != nil {
		return false, err
	}
	var result AddressCheckResult
	if err := resp.Decode(&result); err != nil {
		return false, err
	}
	return result.Success, nil
}

// NextTimeslots lists the next bookable catch/drop timeslot pairs for an
// address or a position. A cached list is discarded once the first slot
// can no longer be booked.
func (c *Client) NextTimeslots(ctx context.Context, req TimeslotRequest) (*atalogics.Response, error) {
	return c.Execute(ctx, http.MethodPost, pathNextTimeslots, req,
		atalogics.WithCacheKey(req.cacheKey(pathNextTimeslots)),
		atalogics.WithExpiry(c.timeslotsExpired),
	)
}

// MustNextTimeslots is NextTimeslots but fails unless the status is 200.
func (c *Client) MustNextTimeslots(ctx context.Context, req TimeslotRequest) (*atalogics.Response, error) {
	resp, err := c.NextTimeslots(ctx, req)
	if err != nil {
		return nil, err
	}
	return mustOK(resp, pathNextTimeslots)
}

// NextDeliveryTime returns the next possible delivery for an address or a
// position. It is cached like NextTimeslots.
func (c *Client) NextDeliveryTime(ctx context.Context, req TimeslotRequest) (*atalogics.Response, error) {
	return c.Execute(ctx, http.MethodPost, pathNextDeliveryTime, req,
		atalogics.WithCacheKey(req.cacheKey(pathNextDeliveryTime)),
		atalogics.WithExpiry(c.deliveryTimeExpired),
	)
}

// Offers lists the offers available for body. Not cached.
func (c *Client) Offers(ctx context.Context, body any) (*atalogics.Response, error) {
	return c.Execute(ctx, http.MethodPost, pathOffers, body)
}

// PurchaseOffer books a shipment for an offer. Not cached.
func (c *Client) PurchaseOffer(ctx context.Context, body any) (*atalogics.Response, error) {
	return c.Execute(ctx, http.MethodPost, pathShipments, body)
}

func (c *Client) timeslotsExpired(r *atalogics.Response) bool {
	var slots []Timeslot
	if err := r.Decode(&slots); err != nil || len(slots) == 0 {
		return true
	}
	return passed(slots[0].CatchTimeWindow.BookableTill, c.Now())
}

func (c *Client) deliveryTimeExpired(r *atalogics.Response) bool {
	var slot Timeslot
	if err := r.Decode(&slot); err != nil {
		return true
	}
	return passed(slot.CatchTimeWindow.BookableTill, c.Now())
}

// passed reports whether now is after the RFC 3339 time ts. Unparseable
// times count as passed.
func passed(ts string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return true
	}
	return now.After(t)
}

func mustOK(resp *atalogics.Response, path string) (*atalogics.Response, error) {
	if resp.Code != http.StatusOK {
		return nil, errors.FromResponse(errors.ErrCodeFailedResponse, http.MethodPost, path, resp.Code, resp.Body)
	}
	return resp, nil
}
