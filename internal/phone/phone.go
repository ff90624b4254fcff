// Package phone validates regional phone numbers and formats them as E.164.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

// DefaultRegion is the region used when the deployment does not configure one.
const DefaultRegion = "MA"

// Normalizer canonicalizes numbers dialed from a fixed region.
type Normalizer struct {
	region string
}

// NewNormalizer returns a Normalizer for the given ISO 3166-1 region code.
func NewNormalizer(region string) (*Normalizer, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return nil, fmt.Errorf("unsupported phone region %q", region)
	}
	return &Normalizer{region: region}, nil
}

// Region reports the region numbers are parsed against.
func (n *Normalizer) Region() string { return n.region }

// Normalize parses raw against the region and returns it in E.164 form.
// Unparsable or implausible numbers yield apperr.ErrInvalidPhoneNumber.
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.InvalidPhoneNumber()
	}
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return "", apperr.InvalidPhoneNumber()
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", apperr.InvalidPhoneNumber()
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
