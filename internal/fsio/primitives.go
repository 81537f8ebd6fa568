package fsio

import "fmt"

// primitive is the two-phase machine shared by every filesystem
// primitive: emit the request once, then accept exactly one reply of the
// same request type.
type primitive[R Io, T any] struct {
	req    R
	path   string
	sent   bool
	output func(R) T
}

func (p *primitive[R, T]) resume(arg Io) Result[T] {
	if !p.sent {
		p.sent = true
		return Suspend[T](p.req)
	}

	if arg == nil {
		return Fail[T](&Error{Op: p.req.Op(), Path: p.path, Err: ErrMissingIo})
	}

	reply, ok := arg.(R)
	if !ok {
		err := fmt.Errorf("%w: want %s, got %s", ErrUnexpectedIo, p.req.Op(), arg.Op())
		return Fail[T](&Error{Op: p.req.Op(), Path: p.path, Err: err})
	}

	if err := reply.failure(); err != nil {
		return Fail[T](&Error{Op: p.req.Op(), Path: p.path, Err: err})
	}

	return Done(p.output(reply))
}

func unit[R Io](R) struct{} { return struct{}{} }

// CreateDir creates a single directory.
type CreateDir struct {
	p primitive[*CreateDirIo, struct{}]
}

func NewCreateDir(path string) *CreateDir {
	return &CreateDir{p: primitive[*CreateDirIo, struct{}]{
		req:    &CreateDirIo{Path: path},
		path:   path,
		output: unit[*CreateDirIo],
	}}
}

func (c *CreateDir) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }

// RemoveDir removes a directory recursively.
type RemoveDir struct {
	p primitive[*RemoveDirIo, struct{}]
}

func NewRemoveDir(path string) *RemoveDir {
	return &RemoveDir{p: primitive[*RemoveDirIo, struct{}]{
		req:    &RemoveDirIo{Path: path},
		path:   path,
		output: unit[*RemoveDirIo],
	}}
}

func (c *RemoveDir) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }

// CreateFile writes one file.
type CreateFile struct {
	p primitive[*CreateFileIo, struct{}]
}

func NewCreateFile(path string, contents []byte) *CreateFile {
	return &CreateFile{p: primitive[*CreateFileIo, struct{}]{
		req:    &CreateFileIo{Path: path, Contents: contents},
		path:   path,
		output: unit[*CreateFileIo],
	}}
}

func (c *CreateFile) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }

// CreateFiles writes a batch of files keyed by destination path. The map
// is owned by the primitive once passed in.
type CreateFiles struct {
	p primitive[*CreateFilesIo, struct{}]
}

func NewCreateFiles(files map[string][]byte) *CreateFiles {
	return &CreateFiles{p: primitive[*CreateFilesIo, struct{}]{
		req:    &CreateFilesIo{Files: files},
		output: unit[*CreateFilesIo],
	}}
}

func (c *CreateFiles) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }

// ReadFile reads one file.
type ReadFile struct {
	p primitive[*ReadFileIo, []byte]
}

func NewReadFile(path string) *ReadFile {
	return &ReadFile{p: primitive[*ReadFileIo, []byte]{
		req:    &ReadFileIo{Path: path},
		path:   path,
		output: func(io *ReadFileIo) []byte { return io.Contents },
	}}
}

func (c *ReadFile) Resume(arg Io) Result[[]byte] { return c.p.resume(arg) }

// ReadFiles reads a batch of files and returns their contents keyed by
// path. With optional set, missing files are omitted from the output.
type ReadFiles struct {
	p primitive[*ReadFilesIo, map[string][]byte]
}

func NewReadFiles(paths []string, optional bool) *ReadFiles {
	return &ReadFiles{p: primitive[*ReadFilesIo, map[string][]byte]{
		req: &ReadFilesIo{Paths: paths, Optional: optional},
		output: func(io *ReadFilesIo) map[string][]byte {
			if io.Contents == nil {
				return map[string][]byte{}
			}
			return io.Contents
		},
	}}
}

func (c *ReadFiles) Resume(arg Io) Result[map[string][]byte] { return c.p.resume(arg) }

// ReadDir lists the immediate entries of a directory.
type ReadDir struct {
	p primitive[*ReadDirIo, []DirEntry]
}

func NewReadDir(path string) *ReadDir {
	return &ReadDir{p: primitive[*ReadDirIo, []DirEntry]{
		req:    &ReadDirIo{Path: path},
		path:   path,
		output: func(io *ReadDirIo) []DirEntry { return io.Entries },
	}}
}

func (c *ReadDir) Resume(arg Io) Result[[]DirEntry] { return c.p.resume(arg) }

// RemoveFile removes one file.
type RemoveFile struct {
	p primitive[*RemoveFileIo, struct{}]
}

func NewRemoveFile(path string) *RemoveFile {
	return &RemoveFile{p: primitive[*RemoveFileIo, struct{}]{
		req:    &RemoveFileIo{Path: path},
		path:   path,
		output: unit[*RemoveFileIo],
	}}
}

func (c *RemoveFile) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }

// Rename moves a batch of paths onto their destinations.
type Rename struct {
	p primitive[*RenameIo, struct{}]
}

func NewRename(pairs ...RenamePair) *Rename {
	return &Rename{p: primitive[*RenameIo, struct{}]{
		req:    &RenameIo{Pairs: pairs},
		output: unit[*RenameIo],
	}}
}

func (c *Rename) Resume(arg Io) Result[struct{}] { return c.p.resume(arg) }
