// Package either provides a disjoint union of a failure (Left) and a success
// (Right) value, for places where a plain (T, error) pair cannot travel, such as
// elements of a stream or accumulated validation results.
package either

import "fmt"

// Either holds exactly one of a Left or a Right value.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left wraps a failure value.
func Left[L, R any](l L) Either[L, R] {
	return Either[L, R]{left: l}
}

// Right wraps a success value.
func Right[L, R any](r R) Either[L, R] {
	return Either[L, R]{right: r, isRight: true}
}

// FromResult converts a Go (value, error) pair.
func FromResult[R any](v R, err error) Either[error, R] {
	if err != nil {
		return Left[error, R](err)
	}
	return Right[error](v)
}

func (e Either[L, R]) IsLeft() bool  { return !e.isRight }
func (e Either[L, R]) IsRight() bool { return e.isRight }

// LeftValue returns the Left value and whether e is a Left.
func (e Either[L, R]) LeftValue() (L, bool) { return e.left, !e.isRight }

// RightValue returns the Right value and whether e is a Right.
func (e Either[L, R]) RightValue() (R, bool) { return e.right, e.isRight }

// GetOrElse returns the Right value, or fallback for a Left.
func (e Either[L, R]) GetOrElse(fallback R) R {
	if e.isRight {
		return e.right
	}
	return fallback
}

func (e Either[L, R]) String() string {
	if e.isRight {
		return fmt.Sprintf("Right(%v)", e.right)
	}
	return fmt.Sprintf("Left(%v)", e.left)
}

// Fold collapses e by applying onLeft or onRight.
func Fold[L, R, X any](e Either[L, R], onLeft func(L) X, onRight func(R) X) X {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// Map transforms the Right value.
func Map[L, R, R2 any](e Either[L, R], f func(R) R2) Either[L, R2] {
	if e.isRight {
		return Right[L](f(e.right))
	}
	return Left[L, R2](e.left)
}

// MapLeft transforms the Left value.
func MapLeft[L, R, L2 any](e Either[L, R], f func(L) L2) Either[L2, R] {
	if e.isRight {
		return Right[L2](e.right)
	}
	return Left[L2, R](f(e.left))
}

// FlatMap chains a fallible step on the Right value. It stops at the first Left.
func FlatMap[L, R, R2 any](e Either[L, R], f func(R) Either[L, R2]) Either[L, R2] {
	if e.isRight {
		return f(e.right)
	}
	return Left[L, R2](e.left)
}

// Zip3 combines three results. Unlike FlatMap it does not stop at the first
// failure: all Left values are merged with combine, in argument order.
func Zip3[L, A, B, C, R any](
	a Either[L, A],
	b Either[L, B],
	c Either[L, C],
	combine func(L, L) L,
	f func(A, B, C) R,
) Either[L, R] {
	var (
		acc    L
		failed bool
	)
	collect := func(l L, isLeft bool) {
		if !isLeft {
			return
		}
		if failed {
			acc = combine(acc, l)
			return
		}
		acc, failed = l, true
	}
	collect(a.left, !a.isRight)
	collect(b.left, !b.isRight)
	collect(c.left, !c.isRight)
	if failed {
		return Left[L, R](acc)
	}
	return Right[L](f(a.right, b.right, c.right))
}
