package handlers

import "github.com/oriys/newtonfractal/internal/domain"

// strategyLabel, precisionLabel, and pngEncoderLabel give Prometheus-stable
// string labels for the domain enums, independent of httpapi's copies (which
// label the same enums for the render log and JSON metadata).

func strategyLabel(s domain.Strategy) string {
	switch s {
	case domain.StrategyNaive:
		return "NAIVE"
	case domain.StrategyBlock:
		return "DYNAMIC_BLOCK"
	case domain.StrategyBlockThreadedIncremental:
		return "DYNAMIC_BLOCK_THREADED_INCREMENTAL"
	default:
		return "DYNAMIC_BLOCK_THREADED"
	}
}

func precisionLabel(p domain.Precision) string {
	if p == domain.PrecisionDouble {
		return "DOUBLE"
	}
	return "SINGLE"
}

func pngEncoderLabel(e domain.PNGEncoder) string {
	if e == domain.PNGEncoderB {
		return "B"
	}
	return "A"
}
