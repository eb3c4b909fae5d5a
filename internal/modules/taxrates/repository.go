// Package taxrates provides effective tax-rate lookup by jurisdiction.
// Rates live in the config database so jurisdictions can be added or
// corrected without code changes.
package taxrates

import (
	"database/sql"
	"fmt"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
)

// Repository reads jurisdiction tax rates from config.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new tax-rate repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "taxrates").Logger(),
	}
}

// GetByLocation retrieves rates for a jurisdiction.
// Returns (nil, nil) when the location is unknown - fallback handling
// belongs to the Provider, not the repository.
func (r *Repository) GetByLocation(location string) (*domain.TaxRates, error) {
	row := r.db.QueryRow(`
		SELECT location,
		       fed_ordinary_income, fed_short_term_gains, fed_long_term_gains, fed_qualified_dividends,
		       state_ordinary_income, state_capital_gains, state_dividends,
		       zero_investment_income
		FROM tax_jurisdictions
		WHERE location = ?
	`, location)

	var rates domain.TaxRates
	var zeroRegime int
	err := row.Scan(
		&rates.Location,
		&rates.Federal.OrdinaryIncome,
		&rates.Federal.ShortTermCapitalGains,
		&rates.Federal.LongTermCapitalGains,
		&rates.Federal.QualifiedDividends,
		&rates.State.OrdinaryIncome,
		&rates.State.CapitalGains,
		&rates.State.Dividends,
		&zeroRegime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax rates for %s: %w", location, err)
	}

	rates.SpecialRules.ZeroInvestmentIncome = zeroRegime != 0
	return &rates, nil
}

// List returns all known jurisdictions
func (r *Repository) List() ([]string, error) {
	rows, err := r.db.Query("SELECT location FROM tax_jurisdictions ORDER BY location")
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan jurisdiction row")
			continue
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jurisdictions: %w", err)
	}

	return locations, nil
}
