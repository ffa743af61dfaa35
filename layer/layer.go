// Package layer implements the layer store: an ordered collection of
// background, subject and text layers with immutable snapshots.
//
// Layers are stacked bottom to top by ascending Order. Orders may have
// gaps and ties; ties resolve by position in the store's layer list, so
// sorting is always stable.
package layer

import "fmt"

// Kind tags the variant of a layer.
type Kind uint8

const (
	// KindBackground is the uploaded photo at native resolution.
	KindBackground Kind = iota
	// KindSubject is the cutout produced by background removal.
	KindSubject
	// KindText is a styled text run.
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "background"
	case KindSubject:
		return "subject"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Fixed ids and names of the image layers.
const (
	BackgroundID   = "full-layer"
	BackgroundName = "Full Image"
	SubjectID      = "subject-layer"
	SubjectName    = "Subject Only"

	// DefaultTextName labels a text layer whose content is empty.
	DefaultTextName = "New Text"
)

// TextProps are the attributes of a text layer.
type TextProps struct {
	Content       string
	FontFamily    string
	Left          float64 // normalized, [-50, 50]
	Top           float64 // normalized, [-50, 50], positive is up
	FontSize      float64 // preview pixels
	FontWeight    int
	Color         string // CSS color
	Opacity       float64
	Rotation      float64 // degrees
	TiltX         float64 // degrees
	TiltY         float64 // degrees
	LetterSpacing float64 // preview pixels
	ShadowColor   string  // CSS color
	ShadowSize    float64 // 0 disables the shadow
}

// DefaultTextProps returns the attributes of a freshly added text layer.
func DefaultTextProps() TextProps {
	return TextProps{
		Content:     "edit",
		FontFamily:  "Inter",
		FontSize:    200,
		FontWeight:  800,
		Color:       "white",
		Opacity:     1,
		ShadowColor: "rgba(0, 0, 0, 0.8)",
		ShadowSize:  4,
	}
}

// Layer is one entry of the stack. The text payload is present exactly
// when Kind is KindText and is never modified after construction.
type Layer struct {
	ID      string
	Name    string
	Kind    Kind
	Visible bool
	Order   int

	text *TextProps
}

// Text returns the text attributes of a text layer.
func (l Layer) Text() (TextProps, bool) {
	if l.Kind != KindText || l.text == nil {
		return TextProps{}, false
	}
	return *l.text, true
}

// IsText reports whether l is a text layer.
func (l Layer) IsText() bool {
	return l.Kind == KindText
}

func newImageLayer(kind Kind, order int) Layer {
	l := Layer{Kind: kind, Visible: true, Order: order}
	switch kind {
	case KindBackground:
		l.ID, l.Name = BackgroundID, BackgroundName
	case KindSubject:
		l.ID, l.Name = SubjectID, SubjectName
	}
	return l
}

func newTextLayer(id, name string, props TextProps, order int) Layer {
	p := props
	p.Left = clampPosition(p.Left)
	p.Top = clampPosition(p.Top)
	return Layer{ID: id, Name: name, Kind: KindText, Visible: true, Order: order, text: &p}
}

// withText returns a copy of l carrying a new payload.
func (l Layer) withText(p TextProps) Layer {
	p.Left = clampPosition(p.Left)
	p.Top = clampPosition(p.Top)
	l.text = &p
	return l
}

// displayName derives a layer name from its content.
func displayName(content string) string {
	if content == "" {
		return DefaultTextName
	}
	return content
}
