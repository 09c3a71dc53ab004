// Package broker implements the distribution side of the matrix engine.
//
// A Broker validates a product request, partitions it into one work unit per
// output cell, dispatches every unit to a worker chosen by round-robin and
// assembles the outcomes into the result matrix. A product either succeeds
// completely or fails with a single aggregated error; partial matrices are
// never returned.
package broker
