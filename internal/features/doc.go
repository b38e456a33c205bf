// Package features caches every per-photo measurement of the leaf pipeline.
//
// A Store owns one photograph. Each intermediate value (paper ROI, pixel
// sizes, leaf rows, widths, leaf box) and each output feature is a node of a
// fixed dependency graph. Nodes are computed lazily, at most once, in
// dependency order; computing a node drops every value downstream of it so
// that nothing cached can disagree with its inputs.
//
// A Store can be seeded from a previously persisted Record with LoadPartial.
// Loaded values count as computed; absent ones are computed on first use.
// WasModified reports whether anything had to be computed.
//
// A Store is not safe for concurrent use. Distinct Stores share nothing and
// may be used from different goroutines.
package features
