// Package strategies is the registry of rebalancing strategies. Records
// live in the config database so strategies can be added or edited
// without code changes.
package strategies

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
)

// allocationSumTolerance mirrors the generator's allocation check: target
// weights must sum to 1.0 within this tolerance.
const allocationSumTolerance = 0.001

// Repository provides access to the strategy registry
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new strategy repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "strategies").Logger(),
	}
}

// List returns all registered strategies ordered by ID
func (r *Repository) List() ([]domain.RebalancingStrategy, error) {
	rows, err := r.db.Query(`
		SELECT id, name, risk_level, rebalance_frequency, threshold_tolerance, tax_optimized, target_allocation
		FROM strategies
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []domain.RebalancingStrategy
	for rows.Next() {
		strategy, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}
	return strategies, rows.Err()
}

// GetByID returns one strategy, or nil if no such strategy exists
func (r *Repository) GetByID(id string) (*domain.RebalancingStrategy, error) {
	row := r.db.QueryRow(`
		SELECT id, name, risk_level, rebalance_frequency, threshold_tolerance, tax_optimized, target_allocation
		FROM strategies
		WHERE id = ?
	`, id)

	strategy, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &strategy, nil
}

// Save inserts or replaces a strategy after validating its allocation
func (r *Repository) Save(strategy domain.RebalancingStrategy) error {
	if strategy.ID == "" {
		return domain.NewValidationError("id", "is required")
	}
	if strategy.ThresholdTolerance < 0 || strategy.ThresholdTolerance > 1 {
		return domain.NewValidationError("threshold_tolerance", "must be between 0 and 1")
	}
	if err := validateAllocation(strategy.TargetAllocation); err != nil {
		return err
	}

	allocation, err := json.Marshal(strategy.TargetAllocation)
	if err != nil {
		return fmt.Errorf("failed to encode allocation: %w", err)
	}

	taxOptimized := 0
	if strategy.TaxOptimized {
		taxOptimized = 1
	}

	_, err = r.db.Exec(`
		INSERT INTO strategies (id, name, risk_level, rebalance_frequency, threshold_tolerance, tax_optimized, target_allocation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			risk_level = excluded.risk_level,
			rebalance_frequency = excluded.rebalance_frequency,
			threshold_tolerance = excluded.threshold_tolerance,
			tax_optimized = excluded.tax_optimized,
			target_allocation = excluded.target_allocation,
			updated_at = excluded.updated_at
	`, strategy.ID, strategy.Name, string(strategy.RiskLevel), string(strategy.RebalanceFrequency),
		strategy.ThresholdTolerance, taxOptimized, string(allocation), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save strategy: %w", err)
	}

	r.log.Info().Str("strategy_id", strategy.ID).Msg("Strategy saved")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStrategy(row rowScanner) (domain.RebalancingStrategy, error) {
	var strategy domain.RebalancingStrategy
	var taxOptimized int
	var allocation string

	err := row.Scan(&strategy.ID, &strategy.Name, (*string)(&strategy.RiskLevel),
		(*string)(&strategy.RebalanceFrequency), &strategy.ThresholdTolerance, &taxOptimized, &allocation)
	if err != nil {
		return domain.RebalancingStrategy{}, err
	}

	strategy.TaxOptimized = taxOptimized != 0
	if err := json.Unmarshal([]byte(allocation), &strategy.TargetAllocation); err != nil {
		return domain.RebalancingStrategy{}, fmt.Errorf("failed to decode allocation for %s: %w", strategy.ID, err)
	}
	return strategy, nil
}

func validateAllocation(allocation map[string]float64) error {
	if len(allocation) == 0 {
		return domain.NewValidationError("target_allocation", "is required")
	}
	var sum float64
	for category, weight := range allocation {
		if weight < 0 {
			return domain.NewValidationError("target_allocation", fmt.Sprintf("negative weight for %q", category))
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > allocationSumTolerance {
		return domain.NewValidationError("target_allocation", fmt.Sprintf("weights sum to %.4f, expected 1.0", sum))
	}
	return nil
}
