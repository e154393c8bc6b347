package model

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
)

// Country identifies a country by its ISO 3166-1 codes.
type Country struct {
	ISO3 string `json:"iso3"`
	ISO2 string `json:"iso2"`
}

// nutsOverrides maps ISO alpha-2 codes to the Eurostat/NUTS country prefix
// where the two differ.
var nutsOverrides = map[string]string{
	"GR": "EL",
	"GB": "UK",
}

// ParseCountry resolves an ISO 3166-1 alpha-3 code.
func ParseCountry(code string) (Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return Country{}, eris.Wrapf(ErrInvalidInput, "country code %q is not ISO 3166-1 alpha-3", code)
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return Country{}, eris.Wrapf(ErrInvalidInput, "unrecognized country code %q", code)
	}
	if region.ISO3() != code {
		// ParseRegion canonicalizes deprecated codes; only accept the code as given.
		return Country{}, eris.Wrapf(ErrInvalidInput, "unrecognized country code %q", code)
	}
	return Country{ISO3: code, ISO2: region.String()}, nil
}

// MustCountry is ParseCountry for package-level tables and tests.
func MustCountry(code string) Country {
	c, err := ParseCountry(code)
	if err != nil {
		panic(err)
	}
	return c
}

// NUTS returns the country prefix used by Eurostat datasets.
func (c Country) NUTS() string {
	if n, ok := nutsOverrides[c.ISO2]; ok {
		return n
	}
	return c.ISO2
}

func (c Country) String() string { return c.ISO3 }
