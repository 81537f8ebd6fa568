package fsio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	appLog "vdir/internal/log"
)

const (
	dirMode  fs.FileMode = 0o755
	fileMode fs.FileMode = 0o644
)

// Executor performs Io requests. Handle fills the request's output and
// Err fields in place; the returned error is reserved for faults of the
// executor itself (cancelled context, unsupported request) and aborts the
// drive.
type Executor interface {
	Handle(ctx context.Context, io Io) error
}

// FsExecutor handles requests against an afero filesystem, which makes
// the same engine run on the OS filesystem or fully in memory.
type FsExecutor struct {
	fs afero.Fs
}

// NewExecutor returns an executor backed by fsys.
func NewExecutor(fsys afero.Fs) *FsExecutor {
	return &FsExecutor{fs: fsys}
}

// OS returns an executor backed by the host filesystem.
func OS() *FsExecutor {
	return NewExecutor(afero.NewOsFs())
}

// Memory returns an executor backed by an empty in-memory filesystem.
func Memory() *FsExecutor {
	return NewExecutor(afero.NewMemMapFs())
}

// Fs exposes the underlying filesystem, mostly for tests and fixtures.
func (e *FsExecutor) Fs() afero.Fs {
	return e.fs
}

func (e *FsExecutor) Handle(ctx context.Context, req Io) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch io := req.(type) {
	case *CreateDirIo:
		io.Err = e.createDir(io.Path)
	case *RemoveDirIo:
		io.Err = e.removeDir(io.Path)
	case *CreateFileIo:
		io.Err = afero.WriteFile(e.fs, io.Path, io.Contents, fileMode)
	case *CreateFilesIo:
		io.Err = e.createFiles(io.Files)
	case *ReadFileIo:
		io.Contents, io.Err = afero.ReadFile(e.fs, io.Path)
	case *ReadFilesIo:
		io.Contents, io.Err = e.readFiles(io.Paths, io.Optional)
	case *ReadDirIo:
		io.Entries, io.Err = e.readDir(io.Path)
	case *RemoveFileIo:
		io.Err = e.fs.Remove(io.Path)
	case *RenameIo:
		io.Err = e.rename(io.Pairs)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedIo, req)
	}

	if err := req.failure(); err != nil {
		appLog.Debug("fsio request failed", "op", req.Op(), "err", err)
	} else {
		appLog.Debug("fsio request handled", "op", req.Op())
	}
	return nil
}

// createDir creates path only. Some afero backends create missing
// parents on Mkdir, so the parent is checked first.
func (e *FsExecutor) createDir(path string) error {
	if _, err := e.fs.Stat(filepath.Dir(path)); err != nil {
		return err
	}
	return e.fs.Mkdir(path, dirMode)
}

func (e *FsExecutor) removeDir(path string) error {
	// RemoveAll succeeds on missing paths; a vanished collection is
	// still reported.
	if _, err := e.fs.Stat(path); err != nil {
		return err
	}
	return e.fs.RemoveAll(path)
}

func (e *FsExecutor) createFiles(files map[string][]byte) error {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := afero.WriteFile(e.fs, path, files[path], fileMode); err != nil {
			return err
		}
	}
	return nil
}

func (e *FsExecutor) readFiles(paths []string, optional bool) (map[string][]byte, error) {
	contents := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := afero.ReadFile(e.fs, path)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		contents[path] = data
	}
	return contents, nil
}

func (e *FsExecutor) readDir(dir string) ([]DirEntry, error) {
	infos, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		path := filepath.Join(dir, info.Name())

		// Symlinked collections and items are classified by their target.
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := e.fs.Stat(path)
			if err != nil {
				entries = append(entries, DirEntry{Path: path, Kind: EntryOther})
				continue
			}
			info = target
		}

		entries = append(entries, DirEntry{Path: path, Kind: entryKind(info)})
	}
	return entries, nil
}

func (e *FsExecutor) rename(pairs []RenamePair) error {
	for _, pair := range pairs {
		if err := e.fs.Rename(pair.From, pair.To); err != nil {
			return err
		}
	}
	return nil
}

func entryKind(info fs.FileInfo) EntryKind {
	switch {
	case info.IsDir():
		return EntryDir
	case info.Mode().IsRegular():
		return EntryFile
	default:
		return EntryOther
	}
}
