package v2

import (
	"github.com/matzehuels/atalogics/pkg/atalogics"
)

// Position is a geographic coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is a postal address, optionally pinned to a position. The
// position fields are sent inline next to the address parts.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	*Position
}

// keyFields returns the address parts in cache key order. Coordinates are
// only part of the key when a position is set.
func (a Address) keyFields() []string {
	fields := []string{a.Street, a.Number, a.PostalCode, a.City}
	if a.Position != nil {
		fields = append(fields, atalogics.FormatCoord(a.Lat), atalogics.FormatCoord(a.Lng))
	}
	return fields
}

type multiAddressRequest struct {
	Addresses []Address `json:"addresses"`
}

// AddressCheckResult is the body of an address check.
type AddressCheckResult struct {
	Success  bool     `json:"success"`
	Existent bool     `json:"existent"`
	SameArea bool     `json:"same_area,omitempty"`
	Error    []string `json:"error,omitempty"`
}

// TimeslotRequest locates a timeslot query by a free-form address or by a
// position, optionally bounded by From and To.
type TimeslotRequest struct {
	Address  string    `json:"address,omitempty"`
	Position *Position `json:"position,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
}

func (r TimeslotRequest) cacheKey(path string) string {
	var key string
	if r.Position != nil {
		key = atalogics.CacheKey(path, atalogics.FormatCoord(r.Position.Lat), atalogics.FormatCoord(r.Position.Lng))
	} else {
		key = atalogics.CacheKey(path, r.Address)
	}
	if r.From != "" {
		key += "_from_" + r.From
	}
	if r.To != "" {
		key += "_to_" + r.To
	}
	return key
}

// TimeWindow is a bookable window. Times are RFC 3339.
type TimeWindow struct {
	From         string `json:"from"`
	To           string `json:"to"`
	BookableTill string `json:"bookable_till"`
}

// Timeslot pairs a catch (pickup) window with a drop (delivery) window.
type Timeslot struct {
	CatchTimeWindow TimeWindow `json:"catch_time_window"`
	DropTimeWindow  TimeWindow `json:"drop_time_window"`
}
