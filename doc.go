// This is a Go implementation of the LogLog-Beta algorithm from "LogLog-Beta and More:
// A New Algorithm for Cardinality Estimation Based on LogLog Counting" by Qin, Kim and
// Tung. This is a cardinality estimation algorithm: given a stream of input elements,
// it will estimate the number of unique items in the stream. The estimation error can
// be controlled by choosing how much memory to use. LogLog-Beta replaces the piecewise
// range corrections of earlier estimators in this family with a single fitted
// bias-correction polynomial, so one formula covers the whole cardinality range.
//
// A sketch is not safe for concurrent use; callers inserting from multiple goroutines
// must serialize access externally. The supported parallel pattern is one sketch per
// goroutine, all built with the same precision, followed by a Merge pass. Merge is a
// pointwise maximum over registers, so it is commutative, associative and idempotent,
// and the order of the merge phase does not matter.
//
// The LogLog-Beta paper is available at https://arxiv.org/abs/1612.02284
package loglogbeta
