// Package measure turns a photograph of a leaf lying on an A4 sheet into
// metric measurements.
//
// A Pipeline runs the individual stages. Each stage is a pure function of the
// photo and the results of earlier stages, so callers are free to cache
// intermediate values:
//
//	LocateSheet      photo                      -> paper ROI (+ per-side fallback flags)
//	PixelSize        photo, ROI, axis           -> millimetres per pixel
//	LocateLeafVertical photo, ROI               -> leaf rows
//	ProfileWidths    photo, ROI, leaf rows      -> 11 width intervals
//	BoundLeaf        photo, ROI, widths, rows   -> leaf bounding box
//	TipAngle, LikelyConvex, AverageColor, Solidity  photo, leaf box -> descriptors
//	Perimeter        photo, leaf box, pixel sizes -> outline length in millimetres
//
// All thresholds live in Config; DefaultConfig documents the values the
// heuristics were tuned with. Stages report unusable photos with
// *DetectionFailure and bad arguments with *InvalidInputError.
package measure
