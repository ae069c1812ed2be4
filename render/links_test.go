// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRenderable satisfies Renderable without behavior; the arena
// never calls into its objects.
type stubRenderable struct{ Renderable }

func TestArenaLifecycle(t *testing.T) {
	a := NewArena()
	one, two := &stubRenderable{}, &stubRenderable{}
	h1 := a.Add(one)
	h2 := a.Add(two)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, a.Len())

	got, ok := a.Get(h1)
	require.True(t, ok)
	assert.Same(t, one, got)

	a.Remove(h1)
	_, ok = a.Get(h1)
	assert.False(t, ok, "removed handle is dead")
	assert.Equal(t, 1, a.Len())

	// Handles are never reused.
	h3 := a.Add(&stubRenderable{})
	assert.NotEqual(t, h1, h3)
}
