// Package editor ties the layer store, compositor, filters and gestures
// into one editing session.
//
// An Editor holds a single photo at a time. Upload replaces it and returns
// a Ticket; background removal for that ticket runs separately and its
// result is dropped if another upload happened in the meantime:
//
//	ed := editor.New(text.NewRegistry(), editor.SidecarRemover{Path: cutout})
//	if err := ed.Load(ctx, file); err != nil {
//		// the subject layer stays empty, text layers keep working
//	}
//	id := ed.AddText()
//	_ = ed.SetAttribute(id, layer.AttrContent, "HELLO")
//	_ = ed.Export(ctx, editor.DirSink{Dir: "."})
package editor
