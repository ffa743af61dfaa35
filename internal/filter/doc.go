// Package filter implements the pixel effects used by the public filter
// pipeline and by text shadows: composable 4x5 colour matrices with the
// CSS filter definitions, and a drop shadow built on a separable Gaussian
// blur with cached kernels.
//
// Everything works on premultiplied textbehind.Pixmap data.
package filter
