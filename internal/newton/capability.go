package newton

import "github.com/klauspost/cpuid/v2"

// DescribeCPU returns a short description of the detected CPU's
// vector-instruction support, logged once at pool startup so operators
// can tell whether BlockWidth's SIMD-shaped layout is actually buying
// anything on this machine. The block iterator itself does not branch on
// this — Go's compiler auto-vectorizes the per-slot loops in FillRegion
// when it can — but the block width was chosen assuming at least AVX2.
func DescribeCPU() string {
	features := "scalar"
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		features = "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2):
		features = "avx2"
	case cpuid.CPU.Supports(cpuid.AVX):
		features = "avx"
	}
	return cpuid.CPU.BrandName + " (" + features + ")"
}
