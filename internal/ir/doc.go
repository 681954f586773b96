// Package ir provides the intermediate representation shared by the
// decomposition runtime: values, type expressions and compiled specs.
//
// All other internal packages import ir; ir imports nothing internal
// except the Go-native protocol in pkg/decon. This keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - exact decimals use IRDecimal
//   - Dates are civil dates (no time of day, no zone)
//   - Maps iterate in insertion order and never hold duplicate keys
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
