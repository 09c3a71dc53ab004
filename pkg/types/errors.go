package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error.
type ErrorCode string

const (
	// ErrCodeShape indicates an empty operand.
	ErrCodeShape ErrorCode = "SHAPE_ERROR"
	// ErrCodeDimensionMismatch indicates left.cols != right.rows.
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	// ErrCodeRaggedMatrix indicates rows of differing lengths.
	ErrCodeRaggedMatrix ErrorCode = "RAGGED_MATRIX"
	// ErrCodeIndex indicates a work unit referring to a cell outside the product.
	ErrCodeIndex ErrorCode = "INDEX_ERROR"
	// ErrCodeTransport indicates the worker could not be reached.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeRemoteStatus indicates the worker answered with a non-success status.
	ErrCodeRemoteStatus ErrorCode = "REMOTE_STATUS_ERROR"
	// ErrCodeDecode indicates a success response whose body could not be parsed.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeLengthMismatch indicates dot product vectors of different lengths.
	ErrCodeLengthMismatch ErrorCode = "LENGTH_MISMATCH"
	// ErrCodeDispatch indicates at least one work unit of a product failed.
	ErrCodeDispatch ErrorCode = "DISPATCH_FAILED"
	// ErrCodeInvalidBody indicates a request body that is not valid JSON for the endpoint.
	ErrCodeInvalidBody ErrorCode = "INVALID_REQUEST_BODY"
)

// Operand names which side of a product an error refers to.
type Operand string

const (
	OperandLeft  Operand = "left"
	OperandRight Operand = "right"
)

// CodedError is implemented by every error variant in this package.
type CodedError interface {
	error
	Code() ErrorCode
}

// CodeOf returns the code of the outermost CodedError in err's chain,
// or an empty code when there is none.
func CodeOf(err error) ErrorCode {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// IsRequestError reports whether err is a fault of the caller's input.
func IsRequestError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeShape, ErrCodeDimensionMismatch, ErrCodeRaggedMatrix,
		ErrCodeLengthMismatch, ErrCodeInvalidBody:
		return true
	}
	return false
}

// ShapeError is returned when an operand has no rows.
type ShapeError struct {
	Operand Operand
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s matrix is empty", e.Operand)
}

func (e *ShapeError) Code() ErrorCode { return ErrCodeShape }

// DimensionMismatchError is returned when the operands cannot be multiplied.
type DimensionMismatchError struct {
	Dims Dimensions
}

func (e *DimensionMismatchError) Error() string {
	d := e.Dims
	return fmt.Sprintf("unable to multiply %dx%d matrix by %dx%d matrix: left columns must equal right rows",
		d.LeftRows, d.LeftCols, d.RightRows, d.RightCols)
}

func (e *DimensionMismatchError) Code() ErrorCode { return ErrCodeDimensionMismatch }

// RaggedMatrixError is returned when a row's length differs from the first row.
type RaggedMatrixError struct {
	Operand  Operand
	Row      int
	Expected int
	Got      int
}

func (e *RaggedMatrixError) Error() string {
	return fmt.Sprintf("%s matrix is ragged: row %d has %d columns, expected %d",
		e.Operand, e.Row, e.Got, e.Expected)
}

func (e *RaggedMatrixError) Code() ErrorCode { return ErrCodeRaggedMatrix }

// IndexError is returned when a work unit or outcome does not map onto
// exactly one cell of the product.
type IndexError struct {
	Row    int
	Col    int
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error at (%d, %d): %s", e.Row, e.Col, e.Reason)
}

func (e *IndexError) Code() ErrorCode { return ErrCodeIndex }

// LengthMismatchError is returned by a worker for vectors of unequal length.
type LengthMismatchError struct {
	RowLen int
	ColLen int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("row length (%d) does not match column length (%d)", e.RowLen, e.ColLen)
}

func (e *LengthMismatchError) Code() ErrorCode { return ErrCodeLengthMismatch }

// TransportError is returned when a worker could not be reached or did not
// answer in time.
type TransportError struct {
	Endpoint string
	Timeout  bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("timeout calling worker %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request to worker %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Code() ErrorCode { return ErrCodeTransport }

// RemoteStatusError is returned when a worker answers with a non-success status.
type RemoteStatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *RemoteStatusError) Error() string {
	return fmt.Sprintf("worker %s responded with status %d, body: %s", e.Endpoint, e.Status, e.Body)
}

func (e *RemoteStatusError) Code() ErrorCode { return ErrCodeRemoteStatus }

// DecodeError is returned when a success response cannot be parsed.
type DecodeError struct {
	Endpoint string
	Body     string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse response from worker %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Code() ErrorCode { return ErrCodeDecode }

// UnitError tags a dispatch failure with the coordinates of its work unit.
type UnitError struct {
	Row      int
	Col      int
	Endpoint string
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("work unit (%d, %d) on %s: %v", e.Row, e.Col, e.Endpoint, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Code returns the code of the underlying cause.
func (e *UnitError) Code() ErrorCode {
	if code := CodeOf(e.Err); code != "" {
		return code
	}
	return ErrCodeTransport
}

// AssemblyError aggregates the failures of a single product.
// First is the failure with the smallest (row, col).
type AssemblyError struct {
	Units  int
	Failed int
	First  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%d of %d work units failed, first failure: %v", e.Failed, e.Units, e.First)
}

func (e *AssemblyError) Unwrap() error { return e.First }

func (e *AssemblyError) Code() ErrorCode { return ErrCodeDispatch }
