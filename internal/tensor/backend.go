package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go, parallelized across cores
//
// The interface is the seam where accelerator backends would plug in;
// everything above it (layers, the kernel basis machinery) is
// backend-agnostic.
type Backend interface {
	// Element-wise binary operations (with NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix and convolution operations.
	MatMul(a, b *RawTensor) *RawTensor                                    // Matrix multiplication.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor      // Dense 2D convolution.
	DepthwiseConv2D(input, kernel *RawTensor, stride, pad int) *RawTensor // Per-channel 2D convolution.

	// Pooling.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor // 2D max pooling.
	AvgPool2D(input *RawTensor, kernelSize, stride int) *RawTensor // 2D average pooling.

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar float64) *RawTensor // Multiply by scalar.
	AddScalar(x *RawTensor, scalar float64) *RawTensor // Add scalar.

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor  // Exponential.
	Sqrt(x *RawTensor) *RawTensor // Square root.
	ReLU(x *RawTensor) *RawTensor // Rectifier max(0, x).

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // Total sum (scalar result).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Sum along dimension.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Maximum along dimension.
	Argmax(x *RawTensor, dim int) *RawTensor                // Index of maximum along dimension.

	// Manipulation operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor       // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor        // Transpose dimensions.
	Cat(tensors []*RawTensor, dim int) *RawTensor          // Concatenate along dimension.
	Slice(x *RawTensor, dim, start, length int) *RawTensor // Contiguous slice along dimension.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}
