// Package v3 is the client for version 3 of the ATALOGICS API.
//
// Offers and city delivery areas are cached (when a cache store is
// configured) under keys prefixed with "V3_". Shipments always go to the
// network.
package v3

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/atalogics/pkg/atalogics"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/errors"
)

// Version is the API version served by this package.
const Version = 3

// DeliveryAreasTTL is how long delivery areas of a city stay cached.
const DeliveryAreasTTL = time.Hour

const (
	pathOffers    = "/offers"
	pathCities    = "/cities/"
	pathShipments = "/shipments"
)

// Client talks to /api/v3.
type Client struct {
	*atalogics.Client
}

// New creates a v3 client. See [atalogics.New].
func New(ctx context.Context, cfg config.Config, opts ...atalogics.Option) (*Client, error) {
	c, err := atalogics.New(ctx, cfg, Version, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: c}, nil
}

// Offers lists offers for body, which must encode as a JSON object (for
// example an [OfferRequest]). The cache key is built from the body's
// top-level values ordered by field name. A cached result is discarded when
// it has no offers or the first offer's catch window is no longer usable.
func (c *Client) Offers(ctx context.Context, body any) (*atalogics.Response, error) {
	key, err := atalogics.BodyKey(pathOffers, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "offers request")
	}
	return c.Execute(ctx, http.MethodPost, pathOffers, body,
		atalogics.WithCacheKey(key),
		atalogics.WithExpiry(c.offersExpired),
	)
}

// MustOffers is Offers but fails unless the status is 200.
func (c *Client) MustOffers(ctx context.Context, body any) (*atalogics.Response, error) {
	resp, err := c.Offers(ctx, body)
	if err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, errors.FromResponse(errors.ErrCodeFailedResponse, http.MethodPost, pathOffers, resp.Code, resp.Body)
	}
	return resp, nil
}

// DeliveryAreas returns the delivery areas of a city, cached for an hour.
func (c *Client) DeliveryAreas(ctx context.Context, cityKey string) (*atalogics.Response, error) {
	if err := errors.ValidateCityKey(cityKey); err != nil {
		return nil, err
	}
	key := pathCities + cityKey
	return c.Execute(ctx, http.MethodGet, pathCities+url.PathEscape(cityKey), nil,
		atalogics.WithCacheKey(key),
		atalogics.WithTTL(DeliveryAreasTTL),
	)
}

// Shipments books a shipment for an offer key. Not cached.
func (c *Client) Shipments(ctx context.Context, body any) (*atalogics.Response, error) {
	return c.Execute(ctx, http.MethodPost, pathShipments, body)
}

func (c *Client) offersExpired(r *atalogics.Response) bool {
	var result OffersResult
	if err := r.Decode(&result); err != nil || len(result.Offers) == 0 {
		return true
	}
	till, err := time.Parse(time.RFC3339, result.Offers[0].CatchWindow.UsableTill)
	if err != nil {
		return true
	}
	return c.Now().After(till)
}
