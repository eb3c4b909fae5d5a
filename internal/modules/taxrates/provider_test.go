package taxrates

import (
	"testing"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory RatesSource for provider tests
type fakeSource struct {
	rates map[string]domain.TaxRates
}

func (f *fakeSource) GetByLocation(location string) (*domain.TaxRates, error) {
	if r, ok := f.rates[location]; ok {
		return &r, nil
	}
	return nil, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		rates: map[string]domain.TaxRates{
			"US": {
				Location: "US",
				Federal: domain.FederalRates{
					OrdinaryIncome:        0.24,
					ShortTermCapitalGains: 0.24,
					LongTermCapitalGains:  0.15,
					QualifiedDividends:    0.15,
				},
			},
			"CA": {
				Location: "CA",
				Federal: domain.FederalRates{
					ShortTermCapitalGains: 0.24,
					LongTermCapitalGains:  0.15,
				},
				State: domain.StateRates{
					OrdinaryIncome: 0.093,
					CapitalGains:   0.093,
					Dividends:      0.093,
				},
			},
			"PR": {
				Location: "PR",
				Federal: domain.FederalRates{
					ShortTermCapitalGains: 0.24,
					LongTermCapitalGains:  0.15,
				},
				SpecialRules: domain.SpecialRules{ZeroInvestmentIncome: true},
			},
		},
	}
}

func TestProvider_KnownLocation(t *testing.T) {
	p := NewProvider(newFakeSource(), "US", zerolog.Nop())

	rates, err := p.GetRates("CA")
	require.NoError(t, err)
	assert.Equal(t, "CA", rates.Location)
	assert.InDelta(t, 0.093, rates.State.CapitalGains, 1e-9)
}

func TestProvider_UnknownLocationFallsBackToDefault(t *testing.T) {
	p := NewProvider(newFakeSource(), "US", zerolog.Nop())

	rates, err := p.GetRates("ATLANTIS")
	require.NoError(t, err)
	assert.Equal(t, "US", rates.Location)
	assert.InDelta(t, 0.24, rates.Federal.ShortTermCapitalGains, 1e-9)
}

func TestProvider_EmptyLocationUsesDefault(t *testing.T) {
	p := NewProvider(newFakeSource(), "US", zerolog.Nop())

	rates, err := p.GetRates("")
	require.NoError(t, err)
	assert.Equal(t, "US", rates.Location)
}

func TestProvider_MissingDefaultUsesBuiltin(t *testing.T) {
	p := NewProvider(&fakeSource{rates: map[string]domain.TaxRates{}}, "US", zerolog.Nop())

	rates, err := p.GetRates("NOWHERE")
	require.NoError(t, err)
	assert.Equal(t, "US", rates.Location)
	assert.InDelta(t, 0.15, rates.Federal.LongTermCapitalGains, 1e-9)
}

func TestEffectiveCapitalGainsRate_ZeroRegime(t *testing.T) {
	p := NewProvider(newFakeSource(), "US", zerolog.Nop())

	rates, err := p.GetRates("PR")
	require.NoError(t, err)

	// A zero-investment-income regime zeroes the rate regardless of
	// holding period
	assert.Zero(t, rates.EffectiveCapitalGainsRate(true))
	assert.Zero(t, rates.EffectiveCapitalGainsRate(false))
}

func TestEffectiveCapitalGainsRate_CombinesFederalAndState(t *testing.T) {
	p := NewProvider(newFakeSource(), "US", zerolog.Nop())

	rates, err := p.GetRates("CA")
	require.NoError(t, err)

	assert.InDelta(t, 0.333, rates.EffectiveCapitalGainsRate(false), 1e-9)
	assert.InDelta(t, 0.243, rates.EffectiveCapitalGainsRate(true), 1e-9)
}
