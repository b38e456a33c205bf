// Package detection finds geometric structure in binary edge images.
//
// HoughSegments implements the progressive probabilistic Hough transform: edge
// pixels are visited in a seeded random order, each votes in a (rho, theta)
// accumulator, and as soon as a bin reaches the vote threshold the
// corresponding line is traced through the edge image, allowing gaps of up to
// MaxLineGap pixels. Traced pixels are removed so that every edge pixel
// contributes to at most one segment. Results are deterministic for a given
// seed.
//
// Building with the "gocv" tag swaps in OpenCV's implementation of the same
// transform through gocv.
//
// The outline helpers (Outline, ConvexHull, PolygonArea) describe the shape
// of a filled mask and back the solidity measurement. Contours traces the
// ordered outer boundary of each blob for the perimeter.
package detection
