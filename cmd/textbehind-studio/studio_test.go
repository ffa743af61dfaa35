package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/textbehind/coord"
	"github.com/gogpu/textbehind/layer"
)

func TestHitText(t *testing.T) {
	n := 0
	store := layer.NewStore(layer.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("text-%d", n)
	}))
	store.AddBackground()
	store.AddSubject()
	_, low := store.AddText()
	_, high := store.AddText()
	_, err := store.SetPosition(low, -25, 0)
	require.NoError(t, err)
	_, err = store.SetAttribute(high, layer.AttrFontSize, 40.0)
	require.NoError(t, err)

	r := coord.Rect{X: 100, Y: 50, W: 400, H: 200}

	id, ok := hitText(store.Snapshot(), r, 300, 150)
	require.True(t, ok)
	assert.Equal(t, high, id, "centre hits the upper layer")

	id, ok = hitText(store.Snapshot(), r, 200, 150)
	require.True(t, ok)
	assert.Equal(t, low, id)

	_, ok = hitText(store.Snapshot(), r, 300, 40)
	assert.False(t, ok, "outside both boxes")

	_, err = store.ToggleVisibility(high)
	require.NoError(t, err)
	id, ok = hitText(store.Snapshot(), r, 300, 150)
	require.True(t, ok)
	assert.Equal(t, low, id, "hidden layers are skipped")

	_, ok = hitText(store.Snapshot(), coord.Rect{}, 300, 150)
	assert.False(t, ok)
}
