// Package f64 implements the small float64 vector kernels used on the
// traversal hot path. None of them allocate.
package f64

// Scal is
//  for i := range x {
//  	x[i] *= alpha
//  }
func Scal(alpha float64, x []float64) {
	for i := range x {
		x[i] *= alpha
	}
}

// Sum is
//  var sum float64
//  for i := range x {
//      sum += x[i]
//  }
func Sum(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum
}

// Fill is
//  for i := range x {
//  	x[i] = alpha
//  }
func Fill(alpha float64, x []float64) {
	for i := range x {
		x[i] = alpha
	}
}

// Uniform sets every element of x to 1/len(x).
func Uniform(x []float64) {
	Fill(1.0/float64(len(x)), x)
}

// AddConst is
//  for i := range x {
//  	x[i] += alpha
//  }
func AddConst(alpha float64, x []float64) {
	for i := range x {
		x[i] += alpha
	}
}

// Dot is
//  for i, v := range x {
//  	sum += y[i] * v
//  }
//  return sum
func Dot(x, y []float64) (sum float64) {
	for i, v := range x {
		sum += y[i] * v
	}
	return sum
}

// Axpy is
//  for i, v := range x {
//  	y[i] += alpha * v
//  }
func Axpy(alpha float64, x, y []float64) {
	for i, v := range x {
		y[i] += alpha * v
	}
}

// Normalize scales x to sum to one. It reports false, leaving x untouched,
// if the total is not positive.
func Normalize(x []float64) bool {
	total := Sum(x)
	if total <= 0 {
		return false
	}

	Scal(1.0/total, x)
	return true
}
