package maintenance

import "gopkg.in/yaml.v3"

// DefaultRolloutFraction is the fraction of the storage target at which
// the scheduler invokes rollup (§4.9, "Storage budget", default 0.85).
const DefaultRolloutFraction = 0.85

// BudgetOptions parameterizes a storage-budget projection.
type BudgetOptions struct {
	// TargetBytes is the ceiling the deployment wants to stay under.
	TargetBytes int64
	// HorizonDays is how far ahead to project growth.
	HorizonDays int
	// DailyMutationBytes is the observed average daily growth rate,
	// measured by the caller from successive file sizes or write logs.
	DailyMutationBytes float64
	// RolloutFraction overrides DefaultRolloutFraction when non-zero.
	RolloutFraction float64
}

func (o BudgetOptions) fraction() float64 {
	if o.RolloutFraction > 0 {
		return o.RolloutFraction
	}
	return DefaultRolloutFraction
}

// BudgetProjection is the result of projecting linear growth from the
// observed mutation rate.
type BudgetProjection struct {
	CurrentBytes   int64   `yaml:"current_bytes"`
	ProjectedBytes int64   `yaml:"projected_bytes"`
	TargetBytes    int64   `yaml:"target_bytes"`
	ThresholdBytes float64 `yaml:"threshold_bytes"` // TargetBytes * RolloutFraction
	ExceedsBudget  bool    `yaml:"exceeds_budget"`  // ProjectedBytes > TargetBytes
	TriggersRollup bool    `yaml:"triggers_rollup"` // ProjectedBytes > ThresholdBytes
}

// ToYAML renders the projection for an operator dashboard or scheduled
// report, using the struct's yaml.v3 field tags.
func (p BudgetProjection) ToYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// ProjectStorageBudget projects linear growth over the horizon from the
// current size and the observed daily mutation rate, and reports whether
// the projection crosses the rollup threshold or the target itself
// (§4.9, "Storage budget"). currentBytes is the caller-supplied current
// file size; this package does not read the file itself.
func ProjectStorageBudget(currentBytes int64, opts BudgetOptions) BudgetProjection {
	projected := float64(currentBytes) + opts.DailyMutationBytes*float64(opts.HorizonDays)
	threshold := float64(opts.TargetBytes) * opts.fraction()

	return BudgetProjection{
		CurrentBytes:   currentBytes,
		ProjectedBytes: int64(projected),
		TargetBytes:    opts.TargetBytes,
		ThresholdBytes: threshold,
		ExceedsBudget:  projected > float64(opts.TargetBytes),
		TriggersRollup: projected > threshold,
	}
}
