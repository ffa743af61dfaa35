// Package compose renders a layer stack into a single raster.
//
// The compositor draws the background photo, every visible text layer and
// the extracted subject in ascending layer order onto a canvas the size of
// the photo, then applies the selected filter either to the whole
// composite or, before anything else is drawn, to the background only.
//
// Text positions are normalized and font sizes are in preview pixels, so
// the result matches the on-screen preview at any resolution:
//
//	c := compose.New(text.NewRegistry())
//	pm, err := c.Render(ctx, compose.Input{
//		Layers:     store.Snapshot(),
//		Background: photo,
//		Subject:    cutout,
//		Viewport:   coord.Sz(800, 600),
//		Filter:     filter.DefaultState(),
//	})
//	if err != nil {
//		return err
//	}
//	return compose.EncodePNG(w, pm)
//
// Perspective tilt is approximated by a scale of cos(tilt) on each axis.
// The approximation is exact for either tilt alone at the layer anchor and
// drifts from a true perspective projection toward the edges of large
// runs.
package compose
