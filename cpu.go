package jetjson

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// The scan kernels are portable, but the two-chunk inner loop only
// pays off where bit manipulation (popcount, tzcnt) runs in hardware.
var wideScan = cpuid.CPU.Supports(cpuid.POPCNT, cpuid.BMI1) || runtime.GOARCH == "arm64"

// SupportedCPU reports whether the host CPU carries the feature set
// the scanner's wide loop is tuned for. Parsing works on any CPU;
// without these features only the conservative chunk loop is used.
func SupportedCPU() bool {
	return wideScan
}
