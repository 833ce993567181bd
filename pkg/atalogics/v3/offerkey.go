package v3

import (
	"encoding/base64"
	"strings"

	"github.com/matzehuels/atalogics/pkg/errors"
)

const offerKeySeparator = "++"

// OfferKey is the decoded form of an offer_key: the catch and drop dates
// with their timeslot ids.
type OfferKey struct {
	CatchDate       string `json:"catch_date"`
	CatchTimeslotID string `json:"catch_timeslot_id"`
	DropDate        string `json:"drop_date"`
	DropTimeslotID  string `json:"drop_timeslot_id"`
}

// DecodeOfferKey decodes a base64 offer key of four "++"-separated fields.
func DecodeOfferKey(digest string) (OfferKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(digest))
	if err != nil {
		return OfferKey{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode offer key")
	}
	parts := strings.Split(string(raw), offerKeySeparator)
	if len(parts) != 4 {
		return OfferKey{}, errors.New(errors.ErrCodeInvalidInput, "offer key has %d fields, want 4", len(parts))
	}
	return OfferKey{
		CatchDate:       parts[0],
		CatchTimeslotID: parts[1],
		DropDate:        parts[2],
		DropTimeslotID:  parts[3],
	}, nil
}

// Encode returns the base64 form of k.
func (k OfferKey) Encode() string {
	s := strings.Join([]string{k.CatchDate, k.CatchTimeslotID, k.DropDate, k.DropTimeslotID}, offerKeySeparator)
	return base64.StdEncoding.EncodeToString([]byte(s))
}
