package region

import (
	"strings"

	"github.com/sells-group/windcost/internal/model"
)

// Quote is a fixed historical-average exchange rate: one unit of From buys
// Rate units of To in Year.
type Quote struct {
	From model.Currency `yaml:"from" mapstructure:"from"`
	To   model.Currency `yaml:"to" mapstructure:"to"`
	Year int            `yaml:"year" mapstructure:"year"`
	Rate float64        `yaml:"rate" mapstructure:"rate"`
}

// Rates holds the exchange-rate table and per-country wage currency
// overrides.
type Rates struct {
	Quotes []Quote `yaml:"quotes" mapstructure:"quotes"`

	// LocalWageCurrency lists countries whose wage-survey average is only
	// published in local currency units, keyed by ISO alpha-3.
	LocalWageCurrency map[string]model.Currency `yaml:"local_wage_currency" mapstructure:"local_wage_currency"`
}

// Rate returns units of to per unit of from in year. A direct quote wins,
// otherwise the inverse of the reverse quote is used.
func (r Rates) Rate(from, to model.Currency, year int) (float64, error) {
	if from == to {
		return 1, nil
	}
	for _, q := range r.Quotes {
		if q.From == from && q.To == to && q.Year == year && q.Rate > 0 {
			return q.Rate, nil
		}
	}
	for _, q := range r.Quotes {
		if q.From == to && q.To == from && q.Year == year && q.Rate > 0 {
			return 1 / q.Rate, nil
		}
	}
	return 0, model.Unavailable("region: no exchange rate %s->%s for %d", from, to, year)
}

// WageCurrency returns the local currency a country's wage survey is
// published in, if it is not USD.
func (r Rates) WageCurrency(country string) (model.Currency, bool) {
	for k, v := range r.LocalWageCurrency {
		// viper lower-cases map keys
		if strings.EqualFold(k, country) {
			return model.Currency(strings.ToUpper(string(v))), true
		}
	}
	return "", false
}

// DefaultRates returns the documented historical-average rates.
func DefaultRates() Rates {
	return Rates{
		Quotes: []Quote{
			{From: model.EUR, To: model.USD, Year: 2017, Rate: 1.1301},
			{From: model.EUR, To: model.USD, Year: 2019, Rate: 1.1201},
			{From: model.GBP, To: model.USD, Year: 2020, Rate: 1.2809},
			{From: model.PLN, To: model.USD, Year: 2019, Rate: 0.2607},
			{From: model.DKK, To: model.USD, Year: 2019, Rate: 0.1500},
			{From: model.EUR, To: model.SEK, Year: 2008, Rate: 9.6152},
		},
		LocalWageCurrency: map[string]model.Currency{
			"POL": model.PLN,
			"DNK": model.DKK,
		},
	}
}
