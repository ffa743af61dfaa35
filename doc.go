// Package textbehind composes styled text between a photo's background and
// its extracted subject.
//
// # Overview
//
// The module is organised as a small set of cooperating packages:
//
//   - layer: the ordered layer model (background, subject cutout, text)
//   - coord: normalized [-50,50] coordinates shared by preview and export
//   - filter: named colour presets with an intensity control
//   - compose: the raster compositor that reproduces the preview at native
//     resolution, plus the style descriptors used by live previews
//   - gesture: drag, snap, pinch, wheel and nudge input handling
//   - editor: the orchestration layer tying the pieces together
//
// This root package holds the raster primitives every other package shares:
// [Pixmap], [RGBA], [Matrix] and [Point], as well as the package logger.
//
// # Quick Start
//
//	ed := editor.New(text.NewRegistry(), editor.SidecarRemover{})
//	if err := ed.Load(ctx, file); err != nil {
//		// the subject layer is disabled, text layers keep working
//	}
//	id := ed.AddText()
//	_ = ed.SetAttribute(id, layer.AttrContent, "HELLO")
//	_ = ed.Export(ctx, editor.DirSink{Dir: "."})
//
// # Coordinate System
//
// Raster coordinates follow image conventions:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Positive rotation angles turn clockwise on screen
//
// Layer positions use normalized space instead: origin at the centre, both
// axes spanning [-50,50], and positive top meaning visually higher.
package textbehind

// Version is reported by the commands.
const Version = "0.1.0"
