package location

// PositionRegistry provides byte-offset-to-position conversion.
//
// This interface is the bridge between consumers that only hold a byte
// offset (a rule match, a path-resolver error, a rename edit) and the
// [sourcemap.SourceMap] that performs the actual conversion. It lets
// diagnostics and LSP adapters obtain accurate Position values without
// depending on the sourcemap package directly.
//
// The primary implementation is sourcemap.Registry.
type PositionRegistry interface {
	// PositionAt converts a byte offset to a Position for the given source.
	//
	// Returns a zero Position (check via IsZero()) if:
	//   - The source is not registered
	//   - The byte offset is out of range
	//   - The byte offset is negative
	//
	// The returned Position has:
	//   - Line: 1-based line number
	//   - Column: 1-based rune offset from line start
	//   - Byte: The input byteOffset (echoed back for convenience)
	PositionAt(source SourceID, byteOffset int) Position
}
