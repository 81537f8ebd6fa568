package watch

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdir/internal/fsio"
)

func seeded(t *testing.T) *fsio.FsExecutor {
	t.Helper()
	exec := fsio.Memory()
	fsys := exec.Fs()
	require.NoError(t, fsys.MkdirAll("/vdir/contacts", 0o755))
	require.NoError(t, fsys.MkdirAll("/vdir/cal", 0o755))

	files := map[string]string{
		"/vdir/contacts/ann.vcf": "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:ann\r\nEND:VCARD\r\n",
		"/vdir/contacts/bob.vcf": "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:bob\r\nEND:VCARD\r\n",
		"/vdir/contacts/bob.tmp": "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:bob\r\n",
		"/vdir/cal/color.tmp":    "#ff0000",
		"/vdir/cal/displayname":  "Cal",
		"/vdir/stray.tmp":        "outside any collection",
	}
	for path, body := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(body), 0o644))
	}
	return exec
}

func TestScan(t *testing.T) {
	s := NewScanner(seeded(t), "/vdir")

	rep, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Collections)
	assert.Equal(t, 2, rep.Items)
	assert.Equal(t, []string{"/vdir/cal/color.tmp", "/vdir/contacts/bob.tmp"}, rep.StaleTemp)
	assert.Equal(t, rep, s.Last())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(fsio.Memory(), "/nowhere").Scan(context.Background())
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	t.Run("InvalidSchedule", func(t *testing.T) {
		s := NewScanner(seeded(t), "/vdir")
		assert.Error(t, s.Start(context.Background(), "every now and then"))
	})

	t.Run("ScansImmediately", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewScanner(seeded(t), "/vdir")
		require.NoError(t, s.Start(ctx, "@every 1h"))

		assert.Eventually(t, func() bool {
			return s.Last().Collections == 2
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestIsTemp(t *testing.T) {
	assert.True(t, isTemp("/vdir/cal/a.tmp"))
	assert.True(t, isTemp("/vdir/cal/displayname.tmp"))
	assert.False(t, isTemp("/vdir/cal/.tmp"))
	assert.False(t, isTemp("/vdir/cal/a.ics"))
	assert.False(t, isTemp("/vdir/cal/tmp"))
}
