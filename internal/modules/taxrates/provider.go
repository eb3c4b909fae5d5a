package taxrates

import (
	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
)

// RatesSource abstracts the jurisdiction lookup so the provider can be
// tested without a database.
type RatesSource interface {
	GetByLocation(location string) (*domain.TaxRates, error)
}

// Provider resolves effective tax rates for a jurisdiction.
// Unknown locations fall back to the configured default jurisdiction and
// are logged as warnings - never an error.
type Provider struct {
	source          RatesSource
	defaultLocation string
	log             zerolog.Logger
}

// NewProvider creates a new tax-rate provider
func NewProvider(source RatesSource, defaultLocation string, log zerolog.Logger) *Provider {
	return &Provider{
		source:          source,
		defaultLocation: defaultLocation,
		log:             log.With().Str("service", "taxrates").Logger(),
	}
}

// GetRates returns the tax-rate profile for a location.
// Lookup order: requested location, then the default jurisdiction, then a
// built-in federal-only profile as a last resort so callers always get a
// usable result.
func (p *Provider) GetRates(location string) (domain.TaxRates, error) {
	if location != "" {
		rates, err := p.source.GetByLocation(location)
		if err != nil {
			return domain.TaxRates{}, err
		}
		if rates != nil {
			return *rates, nil
		}
		p.log.Warn().
			Str("location", location).
			Str("fallback", p.defaultLocation).
			Msg("Unknown jurisdiction, using default")
	}

	rates, err := p.source.GetByLocation(p.defaultLocation)
	if err != nil {
		return domain.TaxRates{}, err
	}
	if rates != nil {
		return *rates, nil
	}

	p.log.Warn().
		Str("default", p.defaultLocation).
		Msg("Default jurisdiction missing from table, using built-in federal rates")
	return builtinDefault(p.defaultLocation), nil
}

// builtinDefault is the hardwired federal-only profile used only when the
// jurisdiction table has no row for the default location.
func builtinDefault(location string) domain.TaxRates {
	return domain.TaxRates{
		Location: location,
		Federal: domain.FederalRates{
			OrdinaryIncome:        0.24,
			ShortTermCapitalGains: 0.24,
			LongTermCapitalGains:  0.15,
			QualifiedDividends:    0.15,
		},
	}
}
