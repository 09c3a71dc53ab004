// Package types defines the core data structures shared by the broker and
// worker nodes of the matrix engine.
//
// This package contains:
//   - Matrix, Dimensions and the multiplication request body
//   - Work units and their outcomes
//   - Worker endpoints
//   - The typed error variants surfaced at the network boundary
package types
