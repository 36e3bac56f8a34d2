package kernel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/steer-ml/steer/internal/group"
)

// angularSolution is one basis element of the steerability constraint for
// a pair of irreps, in polar-separable form
//
//	κ(r, θ) = radial(r) · (C·cos(t·θ) + S·sin(t·θ))
//
// where C and S are dOut×dIn matrix coefficients and t the angular
// frequency. For t = 0 the sine part is absent.
type angularSolution struct {
	freq int
	c    *mat.Dense
	s    *mat.Dense // nil when freq == 0
}

// solveAngular returns all angular solutions of the irrep-pair constraint
//
//	κ(g·x) = ψOut(g) · κ(x) · ψIn(g)ᵀ
//
// for frequencies 0..maxFreq. The constraint is block-diagonal in the
// angular frequency, so each t is solved independently: restricting κ to
// the span of cos(tθ) and sin(tθ) turns the constraint into a finite
// linear system over the matrix coefficients, one block of equations per
// group generator, whose null space is computed by SVD.
//
// A rotation through α maps θ to θ+α; a rotation-reflection with rotation
// part α maps θ to α−θ. Both actions mix the cos/sin coefficients by a
// frequency-t rotation (with a sign flip on the sine part for
// reflections), which is what the coefficient equations below encode.
func solveAngular(g group.Group, in, out *group.Representation, maxFreq int) []angularSolution {
	dO, dI := out.Dim(), in.Dim()
	n := dO * dI
	gens := g.Generators()

	var sols []angularSolution
	for t := 0; t <= maxFreq; t++ {
		nt := n
		if t > 0 {
			nt = 2 * n
		}

		constraints := mat.NewDense(len(gens)*nt, nt, nil)
		for gi, e := range gens {
			alpha := g.Angle(e)
			refl := g.IsReflection(e)
			ct, st := cosSin(float64(t) * alpha)
			p := out.Matrix(e)
			q := in.Matrix(e)

			base := gi * nt
			for i := 0; i < dO; i++ {
				for j := 0; j < dI; j++ {
					rowC := base + i*dI + j

					// Transformed cosine part minus ψOut·C·ψInᵀ.
					constraints.Set(rowC, i*dI+j, constraints.At(rowC, i*dI+j)+ct)
					if t > 0 {
						constraints.Set(rowC, n+i*dI+j, constraints.At(rowC, n+i*dI+j)+st)
					}
					for u := 0; u < dO; u++ {
						for v := 0; v < dI; v++ {
							col := u*dI + v
							constraints.Set(rowC, col, constraints.At(rowC, col)-p.At(i, u)*q.At(j, v))
						}
					}

					if t == 0 {
						continue
					}
					rowS := base + n + i*dI + j

					// Transformed sine part minus ψOut·S·ψInᵀ. Reflections
					// reverse the angular orientation, flipping the sign of
					// the sine coefficients.
					if refl {
						constraints.Set(rowS, i*dI+j, constraints.At(rowS, i*dI+j)+st)
						constraints.Set(rowS, n+i*dI+j, constraints.At(rowS, n+i*dI+j)-ct)
					} else {
						constraints.Set(rowS, i*dI+j, constraints.At(rowS, i*dI+j)-st)
						constraints.Set(rowS, n+i*dI+j, constraints.At(rowS, n+i*dI+j)+ct)
					}
					for u := 0; u < dO; u++ {
						for v := 0; v < dI; v++ {
							col := n + u*dI + v
							constraints.Set(rowS, col, constraints.At(rowS, col)-p.At(i, u)*q.At(j, v))
						}
					}
				}
			}
		}

		null := group.NullSpace(constraints)
		if null == nil {
			continue
		}
		_, k := null.Dims()
		for col := 0; col < k; col++ {
			c := mat.NewDense(dO, dI, nil)
			for i := 0; i < dO; i++ {
				for j := 0; j < dI; j++ {
					c.Set(i, j, null.At(i*dI+j, col))
				}
			}
			var s *mat.Dense
			if t > 0 {
				s = mat.NewDense(dO, dI, nil)
				for i := 0; i < dO; i++ {
					for j := 0; j < dI; j++ {
						s.Set(i, j, null.At(n+i*dI+j, col))
					}
				}
			}
			sols = append(sols, angularSolution{freq: t, c: c, s: s})
		}
	}
	return sols
}
