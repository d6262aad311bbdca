// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	profiles, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, profiles)
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	first := New("local", "localhost", 5432, "postgres", "postgres", true)
	second := New("staging", "db.internal", 5433, "app", "deploy", false)
	require.NoError(t, s.Save([]ConnectionProfile{first, second}))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, first, loaded[0])
	require.Equal(t, second, loaded[1])

	got, ok, err := s.Find("staging")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, second, got)

	_, ok, err = s.Find("missing")
	require.NoError(t, err)
	require.False(t, ok)
}
