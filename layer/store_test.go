package layer

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	})
}

// newEditorStore builds {background@0, t1@1, subject@2}.
func newEditorStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(seqIDs())
	s.AddBackground()
	s.AddSubject()
	snap, id := s.AddText()
	require.Equal(t, "t1", id)
	requireOrders(t, snap, map[string]int{BackgroundID: 0, "t1": 1, SubjectID: 2})
	return s
}

func requireOrders(t *testing.T, snap Snapshot, want map[string]int) {
	t.Helper()
	for id, order := range want {
		l, ok := snap.Find(id)
		require.True(t, ok, id)
		require.Equal(t, order, l.Order, id)
	}
}

func ids(ls []Layer) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestDefaultIDs(t *testing.T) {
	s := NewStore()
	_, a := s.AddText()
	_, b := s.AddText()
	assert.True(t, strings.HasPrefix(a, "text-"), a)
	assert.NotEqual(t, a, b)
}

func TestAddTextDefaults(t *testing.T) {
	s := NewStore(seqIDs())
	snap, id := s.AddText()

	l, ok := snap.Find(id)
	require.True(t, ok)
	assert.Equal(t, KindText, l.Kind)
	assert.True(t, l.Visible)
	p, ok := l.Text()
	require.True(t, ok)
	assert.Equal(t, DefaultTextProps(), p)
	assert.Equal(t, "edit", p.Content)
	assert.Equal(t, 200.0, p.FontSize)
	assert.Equal(t, 800, p.FontWeight)
}

func TestScenarioTwoAddsBetweenBackgroundAndSubject(t *testing.T) {
	s := newEditorStore(t)
	s.AddText()
	snap, _ := s.AddText()

	bg, _ := snap.Background()
	subj, _ := snap.Subject()
	for _, id := range []string{"t2", "t3"} {
		l, ok := snap.Find(id)
		require.True(t, ok)
		assert.Greater(t, l.Order, bg.Order, id)
		assert.Less(t, l.Order, subj.Order, id)
	}
	assert.Equal(t, []string{BackgroundID, "t1", "t2", "t3", SubjectID}, ids(snap.Ordered()))
	assert.Equal(t, []string{BackgroundID, "t1", "t2", "t3", SubjectID}, ids(snap.Layers()))
}

func TestInsertionInvariant(t *testing.T) {
	s := newEditorStore(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		before := s.Snapshot()
		subj, _ := before.Subject()

		var snap Snapshot
		var id string
		if texts := before.Texts(); len(texts) > 0 && rng.Intn(2) == 0 {
			var err error
			snap, id, err = s.Duplicate(texts[rng.Intn(len(texts))].ID)
			require.NoError(t, err)
		} else {
			snap, id = s.AddText()
		}

		added, _ := snap.Find(id)
		newSubj, _ := snap.Subject()
		assert.Equal(t, subj.Order, added.Order)
		assert.Less(t, added.Order, newSubj.Order)

		for _, old := range before.Layers() {
			now, ok := snap.Find(old.ID)
			require.True(t, ok)
			if old.Order >= subj.Order {
				assert.Equal(t, old.Order+1, now.Order, old.ID)
			} else {
				assert.Equal(t, old.Order, now.Order, old.ID)
			}
		}

		seen := map[int]string{}
		for _, l := range snap.Layers() {
			other, dup := seen[l.Order]
			assert.False(t, dup, "order %d shared by %s and %s", l.Order, other, l.ID)
			seen[l.Order] = l.ID
		}
	}
}

func TestAddTextWithoutSubjectAppends(t *testing.T) {
	s := NewStore(seqIDs())
	s.AddBackground()
	s.AddText()
	snap, _ := s.AddText()

	assert.Equal(t, []string{BackgroundID, "t1", "t2"}, ids(snap.Ordered()))
	requireOrders(t, snap, map[string]int{BackgroundID: 0, "t1": 1, "t2": 2})
}

func TestImageLayersOnce(t *testing.T) {
	s := NewStore(seqIDs())
	s.AddText()
	s.AddBackground()
	snap := s.AddBackground()
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, []string{BackgroundID, "t1"}, ids(snap.Ordered()))

	s.AddSubject()
	snap = s.AddSubject()
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, []string{BackgroundID, "t1", SubjectID}, ids(snap.Ordered()))

	_, ok := snap.Find(SubjectID)
	assert.True(t, ok)
	subj, _ := snap.Subject()
	_, isText := subj.Text()
	assert.False(t, isText)
	assert.Equal(t, SubjectName, subj.Name)
}

func TestDuplicate(t *testing.T) {
	s := newEditorStore(t)
	_, err := s.SetAttribute("t1", AttrColor, "#ff0000")
	require.NoError(t, err)

	snap, id, err := s.Duplicate("t1")
	require.NoError(t, err)
	assert.Equal(t, "t2", id)

	orig, _ := snap.Find("t1")
	dup, _ := snap.Find("t2")
	op, _ := orig.Text()
	dp, _ := dup.Text()
	assert.Equal(t, op, dp)
	assert.Equal(t, orig.Name, dup.Name)

	// The copy is independent.
	snap, err = s.SetAttribute("t2", AttrContent, "copy")
	require.NoError(t, err)
	orig, _ = snap.Find("t1")
	op, _ = orig.Text()
	assert.Equal(t, "edit", op.Content)

	_, _, err = s.Duplicate("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Duplicate(SubjectID)
	assert.ErrorIs(t, err, ErrNotText)
}

func TestRemoveKeepsGaps(t *testing.T) {
	s := newEditorStore(t)
	s.AddText()
	snap, err := s.Remove("t1")
	require.NoError(t, err)

	requireOrders(t, snap, map[string]int{BackgroundID: 0, "t2": 2, SubjectID: 3})
	assert.Equal(t, []string{BackgroundID, "t2", SubjectID}, ids(snap.Ordered()))

	_, err = s.Remove("t1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Inserting after a gap still lands below the subject.
	snap, id := s.AddText()
	requireOrders(t, snap, map[string]int{id: 3, SubjectID: 4})
}

func TestSetAttribute(t *testing.T) {
	s := newEditorStore(t)

	tests := []struct {
		key   Attr
		value any
		check func(t *testing.T, l Layer, p TextProps)
	}{
		{AttrFontFamily, "Roboto", func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, "Roboto", p.FontFamily) }},
		{AttrFontSize, 320, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 320.0, p.FontSize) }},
		{AttrFontWeight, 700.4, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 700, p.FontWeight) }},
		{AttrOpacity, float32(0.5), func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 0.5, p.Opacity) }},
		{AttrRotation, int64(-45), func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, -45.0, p.Rotation) }},
		{AttrTiltX, uint8(20), func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 20.0, p.TiltX) }},
		{AttrTiltY, -10.0, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, -10.0, p.TiltY) }},
		{AttrLetterSpacing, 12, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 12.0, p.LetterSpacing) }},
		{AttrShadowColor, "blue", func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, "blue", p.ShadowColor) }},
		{AttrShadowSize, 0, func(t *testing.T, _ Layer, p TextProps) { assert.Zero(t, p.ShadowSize) }},
		{AttrLeft, 80, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, 50.0, p.Left) }},
		{AttrTop, -51.5, func(t *testing.T, _ Layer, p TextProps) { assert.Equal(t, -50.0, p.Top) }},
		{AttrName, "Title", func(t *testing.T, l Layer, _ TextProps) { assert.Equal(t, "Title", l.Name) }},
		{AttrVisible, false, func(t *testing.T, l Layer, _ TextProps) { assert.False(t, l.Visible) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			snap, err := s.SetAttribute("t1", tt.key, tt.value)
			require.NoError(t, err)
			l, _ := snap.Find("t1")
			p, _ := l.Text()
			tt.check(t, l, p)
		})
	}
}

func TestSetAttributeContentNames(t *testing.T) {
	s := newEditorStore(t)

	snap, err := s.SetAttribute("t1", AttrContent, "HELLO")
	require.NoError(t, err)
	l, _ := snap.Find("t1")
	assert.Equal(t, "HELLO", l.Name)

	snap, err = s.SetAttribute("t1", AttrContent, "")
	require.NoError(t, err)
	l, _ = snap.Find("t1")
	assert.Equal(t, DefaultTextName, l.Name)
}

func TestSetAttributeErrors(t *testing.T) {
	s := newEditorStore(t)
	before := s.Snapshot()

	_, err := s.SetAttribute("nope", AttrLeft, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetAttribute("t1", Attr("fontStyle"), "italic")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	_, err = s.SetAttribute("t1", AttrFontSize, "big")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.SetAttribute("t1", AttrContent, 42)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.SetAttribute(SubjectID, AttrFontSize, 10)
	assert.ErrorIs(t, err, ErrNotText)

	_, err = s.SetAttribute(SubjectID, AttrVisible, "yes")
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.Equal(t, before.Version(), s.Snapshot().Version(), "failed mutations publish nothing")

	snap, err := s.SetAttribute(SubjectID, AttrVisible, false)
	require.NoError(t, err)
	subj, _ := snap.Subject()
	assert.False(t, subj.Visible)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := newEditorStore(t)
	old := s.Snapshot()

	_, err := s.SetPosition("t1", 10, 20)
	require.NoError(t, err)
	s.AddText()
	_, err = s.Remove(BackgroundID)
	require.NoError(t, err)

	l, ok := old.Find("t1")
	require.True(t, ok)
	p, _ := l.Text()
	assert.Zero(t, p.Left)
	assert.Zero(t, p.Top)
	assert.Equal(t, 3, old.Len())
	_, ok = old.Background()
	assert.True(t, ok)

	// Callers may scribble over returned slices.
	ls := old.Layers()
	ls[0].Order = 99
	assert.Equal(t, 0, old.Layers()[0].Order)
}

func TestSetPositionClamps(t *testing.T) {
	s := newEditorStore(t)
	snap, err := s.SetPosition("t1", 120, -300)
	require.NoError(t, err)
	l, _ := snap.Find("t1")
	p, _ := l.Text()
	assert.Equal(t, 50.0, p.Left)
	assert.Equal(t, -50.0, p.Top)

	_, err = s.SetPosition(BackgroundID, 0, 0)
	assert.ErrorIs(t, err, ErrNotText)
}

func TestUpdateText(t *testing.T) {
	s := newEditorStore(t)
	snap, err := s.UpdateText("t1", func(p *TextProps) {
		p.Content = "Sky"
		p.Left = 75
	})
	require.NoError(t, err)
	l, _ := snap.Find("t1")
	p, _ := l.Text()
	assert.Equal(t, "Sky", l.Name)
	assert.Equal(t, 50.0, p.Left)

	_, err = s.UpdateText(BackgroundID, func(*TextProps) {})
	assert.ErrorIs(t, err, ErrNotText)
}

func TestToggleVisibility(t *testing.T) {
	s := newEditorStore(t)
	snap, err := s.ToggleVisibility("t1")
	require.NoError(t, err)
	assert.Equal(t, []string{BackgroundID, SubjectID}, ids(snap.Visible()))

	snap, err = s.ToggleVisibility("t1")
	require.NoError(t, err)
	assert.Equal(t, []string{BackgroundID, "t1", SubjectID}, ids(snap.Visible()))

	_, err = s.ToggleVisibility("x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveUpDown(t *testing.T) {
	s := newEditorStore(t)
	s.AddText()
	s.AddText() // bg@0 t1@1 t2@2 t3@3 subject@4

	snap := s.MoveUp("t1")
	assert.Equal(t, []string{"t2", "t1", "t3"}, ids(snap.Texts()))
	requireOrders(t, snap, map[string]int{"t1": 2, "t2": 1, SubjectID: 4})

	snap = s.MoveDown("t1")
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(snap.Texts()))

	// Ends are no-ops.
	v := s.Snapshot().Version()
	s.MoveUp("t3")
	s.MoveDown("t1")
	s.MoveUp("missing")
	s.MoveUp(SubjectID)
	assert.Equal(t, v, s.Snapshot().Version())
}

func TestMoveSymmetry(t *testing.T) {
	s := newEditorStore(t)
	for i := 0; i < 4; i++ {
		s.AddText()
	}
	_, err := s.Remove("t3")
	require.NoError(t, err)

	texts := s.Snapshot().Texts()
	for _, l := range texts[:len(texts)-1] {
		before, _ := s.Snapshot().Find(l.ID)
		s.MoveUp(l.ID)
		after, _ := s.MoveDown(l.ID).Find(l.ID)
		assert.Equal(t, before.Order, after.Order, l.ID)
	}
}

func TestOrderTiesAreStable(t *testing.T) {
	s := newEditorStore(t)
	s.AddText()
	// A snapshot where t1 and t2 share an order.
	snap := s.Snapshot()
	t2, _ := snap.Find("t2")

	layers := snap.Layers()
	layers[1].Order = t2.Order
	tied := Snapshot{layers: layers, index: buildIndex(layers)}

	assert.Equal(t, []string{BackgroundID, "t1", "t2", SubjectID}, ids(tied.Ordered()))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "background", KindBackground.String())
	assert.Equal(t, "subject", KindSubject.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
