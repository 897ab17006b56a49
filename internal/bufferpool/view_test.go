package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileView(t *testing.T) {
	m, f := newTestManager(t, 2)
	v := m.View(f)
	require.Equal(t, f.Key(), v.File().Key())

	id, ref, err := v.AllocPage()
	require.NoError(t, err)
	copy(ref.Data(), fill(3))
	require.NoError(t, v.Unpin(id, true))

	ref, err = v.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, fill(3), ref.Data())
	require.NoError(t, ref.Release(false))

	require.NoError(t, v.Flush())
	require.Equal(t, 1, f.writes[id])
	require.Equal(t, 0, m.ValidFrames())

	require.NoError(t, v.DisposePage(id))
	require.Equal(t, 1, f.disposes[id])
}
