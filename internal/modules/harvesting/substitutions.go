// Package harvesting scans holdings for tax-loss-harvesting opportunities.
package harvesting

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Substitution is a wash-sale-safe replacement for a sold security
type Substitution struct {
	Ticker            string `json:"ticker"`
	Category          string `json:"category"`
	ReplacementTicker string `json:"replacement_ticker"`
}

// SubstitutionRepository reads the replacement-security table from
// config.db. The table is configuration, not code: pairs can be edited
// without a deploy.
type SubstitutionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSubstitutionRepository creates a new substitution repository
func NewSubstitutionRepository(db *sql.DB, log zerolog.Logger) *SubstitutionRepository {
	return &SubstitutionRepository{
		db:  db,
		log: log.With().Str("repository", "substitutions").Logger(),
	}
}

// GetByTicker returns the substitution for a ticker, or nil when none is
// configured.
func (r *SubstitutionRepository) GetByTicker(ticker string) (*Substitution, error) {
	row := r.db.QueryRow(
		"SELECT ticker, category, replacement_ticker FROM substitutions WHERE ticker = ?",
		ticker,
	)

	var sub Substitution
	err := row.Scan(&sub.Ticker, &sub.Category, &sub.ReplacementTicker)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get substitution for %s: %w", ticker, err)
	}

	return &sub, nil
}

// GetAll returns the whole substitution table keyed by ticker
func (r *SubstitutionRepository) GetAll() (map[string]Substitution, error) {
	rows, err := r.db.Query("SELECT ticker, category, replacement_ticker FROM substitutions")
	if err != nil {
		return nil, fmt.Errorf("failed to list substitutions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]Substitution)
	for rows.Next() {
		var sub Substitution
		if err := rows.Scan(&sub.Ticker, &sub.Category, &sub.ReplacementTicker); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan substitution row")
			continue
		}
		result[sub.Ticker] = sub
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating substitutions: %w", err)
	}

	return result, nil
}
