package compare

import "math"

// Decision is the outcome of one sequential-test evaluation.
type Decision string

const (
	// DecisionContinue means the caller should gather more samples.
	DecisionContinue Decision = "continue"
	// DecisionRejectNull means a significant difference was detected.
	DecisionRejectNull Decision = "reject_null"
	// DecisionAcceptNull means the sample budget was exhausted without
	// reaching significance.
	DecisionAcceptNull Decision = "accept_null"
)

// SequentialConfig configures an early-stopping sequential test.
type SequentialConfig struct {
	Alpha                   float64 // overall false-positive budget
	Beta                    float64 // false-negative budget (reserved for power planning)
	MinimumDetectableEffect float64 // smallest effect the test is sized for
	MaxSampleSize           int     // per-experiment sample budget
}

// SequentialResult is the outcome of one Analyze call.
type SequentialResult struct {
	Decision      Decision
	PValue        float64
	AdjustedAlpha float64
}

// SequentialTest monitors an experiment across repeated looks at the data,
// spending alpha so that early rejections require stronger evidence than
// the unadjusted threshold. It holds no mutable state beyond configuration;
// callers accumulate samples and re-submit the full history each call.
type SequentialTest struct {
	config SequentialConfig
}

// Default sequential-test parameters.
const (
	DefaultAlpha         = 0.05
	DefaultMaxSampleSize = 1000
)

// NewSequentialTest creates a controller from config. Non-positive
// Alpha or MaxSampleSize fall back to the defaults.
func NewSequentialTest(config SequentialConfig) *SequentialTest {
	if config.Alpha <= 0 {
		config.Alpha = DefaultAlpha
	}
	if config.MaxSampleSize <= 0 {
		config.MaxSampleSize = DefaultMaxSampleSize
	}
	return &SequentialTest{config: config}
}

// Analyze runs Welch's t-test on the cumulative samples and applies the
// alpha-spending boundary adjustedAlpha = alpha * sqrt(n / maxN).
// Decision order: reject_null if p < adjustedAlpha, accept_null once the
// sample budget is reached, continue otherwise.
func (s *SequentialTest) Analyze(sampleA, sampleB []float64, currentSampleSize int) (*SequentialResult, error) {
	res, err := TTest(sampleA, sampleB)
	if err != nil {
		return nil, err
	}

	adjusted := s.config.Alpha * math.Sqrt(float64(currentSampleSize)/float64(s.config.MaxSampleSize))

	decision := DecisionContinue
	switch {
	case res.PValue < adjusted:
		decision = DecisionRejectNull
	case currentSampleSize >= s.config.MaxSampleSize:
		decision = DecisionAcceptNull
	}

	return &SequentialResult{
		Decision:      decision,
		PValue:        res.PValue,
		AdjustedAlpha: adjusted,
	}, nil
}
