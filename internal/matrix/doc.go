// Package matrix implements the pure parts of a distributed product:
// request validation, partitioning into per-cell work units and the
// saturating dot product computed by workers.
package matrix
