// Package watermark overlays a text or image watermark onto a raster image.
//
// An image mark is scaled to a tenth of the canvas width with a Lanczos
// filter and given a uniform opacity. A text mark is drawn in white from a
// preferred TrueType/OpenType font, or from an embedded fallback face. Marks
// are placed at a named anchor (top-left, center, bottom-right) with a
// 10 pixel margin, or at an explicit offset, and the result is always
// written as PNG. The package works entirely in memory apart from reading
// inputs and writing the output file.
package watermark
