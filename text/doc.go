// Package text resolves font families to loaded fonts, shapes text runs
// with HarfBuzz and rasterizes their glyph outlines into pixmaps.
//
// The pipeline follows a separation of concerns:
//
//   - FontSource: heavyweight, shared font resource (parses TTF/OTF files)
//   - Registry: maps CSS-like family names and weights to FontSources
//   - Shaper: turns a string into positioned glyphs (go-text/typesetting)
//   - Outline: the glyph outlines of a run under an affine transform,
//     filled with golang.org/x/image/vector
//
// The same Registry serves the interactive preview and the export
// compositor, so text measures identically in both.
//
// # Example usage
//
//	fonts := text.NewRegistry()
//	src, err := fonts.Resolve("Inter, sans-serif", 800)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	run, err := text.DefaultShaper().Shape(src, "Hello", 96)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outline, err := run.Outline(textbehind.Translate(40, 120))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outline.Fill(pm, image.Point{}, textbehind.White)
package text
