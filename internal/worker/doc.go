// Package worker provides the worker node's compute service. A worker
// receives one row and one column at a time and answers with their
// saturating dot product.
package worker
