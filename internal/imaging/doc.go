// Package imaging holds the pixel-level building blocks of the leaf pipeline.
//
// A Photo wraps a decoded photograph normalised to origin (0,0) and lazily
// derives its HSV planes. HSV values follow the 8-bit convention used by most
// computer-vision toolkits:
//   - Hue: 0-179 (degrees divided by two)
//   - Saturation: 0-255
//   - Value: 0-255
//
// Binary masks are plain *image.Gray buffers holding 0 or 255 and always start
// at the origin. Erode, Dilate, Open, Close and Gradient operate on them with
// square kernels; none of them modifies its input.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// are half-open: the minimum corner is inclusive, the maximum exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. A Photo may be shared between
// goroutines; its HSV planes are computed once.
package imaging
