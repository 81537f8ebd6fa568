package fsio

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveEmitsRequestThenConsumesReply(t *testing.T) {
	co := NewReadFile("/cal/a.ics")

	res := co.Resume(nil)
	require.True(t, res.Suspended())
	req, ok := res.Io.(*ReadFileIo)
	require.True(t, ok)
	assert.Equal(t, "/cal/a.ics", req.Path)

	req.Contents = []byte("BEGIN:VCALENDAR")
	res = co.Resume(req)
	require.False(t, res.Suspended())
	require.NoError(t, res.Err)
	assert.Equal(t, []byte("BEGIN:VCALENDAR"), res.Value)
}

func TestPrimitiveWrapsExecutorFailure(t *testing.T) {
	co := NewCreateDir("/cal")

	res := co.Resume(nil)
	req := res.Io.(*CreateDirIo)
	req.Err = &fs.PathError{Op: "mkdir", Path: "/cal", Err: fs.ErrExist}

	res = co.Resume(req)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, fs.ErrExist))

	var fsErr *Error
	require.True(t, errors.As(res.Err, &fsErr))
	assert.Equal(t, "create dir", fsErr.Op)
	assert.Equal(t, "/cal", fsErr.Path)
}

func TestPrimitiveProtocolErrors(t *testing.T) {
	t.Run("MissingReply", func(t *testing.T) {
		co := NewRemoveFile("/cal/a.vcf")
		co.Resume(nil)

		res := co.Resume(nil)
		assert.ErrorIs(t, res.Err, ErrMissingIo)
	})

	t.Run("WrongReplyType", func(t *testing.T) {
		co := NewRemoveFile("/cal/a.vcf")
		co.Resume(nil)

		res := co.Resume(&ReadDirIo{Path: "/cal"})
		assert.ErrorIs(t, res.Err, ErrUnexpectedIo)
		assert.Contains(t, res.Err.Error(), "want remove file, got read dir")
	})
}

func TestBatchPrimitives(t *testing.T) {
	t.Run("ReadFilesDefaultsToEmptyMap", func(t *testing.T) {
		co := NewReadFiles([]string{"/a/color"}, true)
		req := co.Resume(nil).Io.(*ReadFilesIo)
		assert.True(t, req.Optional)

		res := co.Resume(req)
		require.NoError(t, res.Err)
		assert.NotNil(t, res.Value)
		assert.Empty(t, res.Value)
	})

	t.Run("RenameCarriesPairsInOrder", func(t *testing.T) {
		co := NewRename(
			RenamePair{From: "/a/color.tmp", To: "/a/color"},
			RenamePair{From: "/a/displayname.tmp", To: "/a/displayname"},
		)
		req := co.Resume(nil).Io.(*RenameIo)
		require.Len(t, req.Pairs, 2)
		assert.Equal(t, "/a/color", req.Pairs[0].To)
		assert.Equal(t, "/a/displayname", req.Pairs[1].To)
	})
}
