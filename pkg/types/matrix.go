package types

// Matrix is a row-major matrix of 32-bit signed integers.
// All rows of a valid matrix share the same length.
type Matrix [][]int32

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	return len(m)
}

// Cols returns the length of the first row, or 0 when the matrix has no rows.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// NewMatrix allocates a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]int32, cols)
	}
	return m
}

// MultiplyRequest is the body accepted by the broker.
type MultiplyRequest struct {
	Left  Matrix `json:"left"`
	Right Matrix `json:"right"`
}

// Dimensions holds the shapes of a validated multiplication.
type Dimensions struct {
	LeftRows  int
	LeftCols  int
	RightRows int
	RightCols int
}

// Units returns the number of work units (output cells) of the product.
func (d Dimensions) Units() int {
	return d.LeftRows * d.RightCols
}

// WorkUnit is one output cell's dot product, carrying its own copies of the
// left row and right column so it can be shipped to a worker as is.
type WorkUnit struct {
	Row       int
	Col       int
	RowVector []int32
	ColVector []int32
}

// UnitOutcome is the result of dispatching a single WorkUnit.
// The unit succeeded iff Err is nil.
type UnitOutcome struct {
	Row      int
	Col      int
	Value    int32
	Endpoint string
	Err      error
}

// Failed reports whether the outcome carries an error.
func (o UnitOutcome) Failed() bool {
	return o.Err != nil
}

// WorkerEndpoint identifies a worker node reachable by the broker.
type WorkerEndpoint struct {
	ID      string `json:"id" yaml:"id"`
	Address string `json:"address" yaml:"address"`
}

// DotProductRequest is the body accepted by a worker.
type DotProductRequest struct {
	Row []int32 `json:"row"`
	Col []int32 `json:"col"`
}

// DotProductResponse is the success body returned by a worker.
type DotProductResponse struct {
	Result int32 `json:"result"`
}
