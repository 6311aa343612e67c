// Package geometry holds the quadrilateral types shared by detection and
// preprocessing, and the rule used to pick one candidate out of a detector's
// output.
//
// # Coordinate System
//
// Points are floating-point image coordinates with the origin at the top-left
// corner, X increasing rightward and Y increasing downward. Detectors may emit
// sub-pixel corners, so nothing here rounds.
//
// # Corner Order
//
// A Quadrilateral stores its corners as TopLeft, TopRight, BottomLeft and
// BottomRight exactly as the producer supplied them. No ordering or convexity
// check is applied; a self-intersecting quad is a valid value.
//
// # Selection
//
// SelectBest scores each candidate by the sum of its top edge and left edge
// (a half-perimeter proxy) and keeps the highest-scoring one whose left edge is
// shorter than half its top edge. The first candidate is the winner until
// something beats it, so a non-empty input always produces a result.
package geometry
