// Package fsio is the filesystem capability boundary of the vdir engine.
//
// Every filesystem primitive (create/remove a directory, create/read/remove
// files, list a directory, rename a batch of paths) is expressed as a small
// resumable state machine. The first call to Resume emits an Io request; the
// caller performs it with an Executor and resumes the machine with the
// handled request, which then yields the primitive's value or error.
//
// Io requests carry their input and, once handled, their output plus the
// OS-level failure in Err. Batch requests (CreateFilesIo, ReadFilesIo,
// RenameIo) are one request so an executor may handle them as a unit.
package fsio

// Io is one unit of filesystem work. The set of implementations is closed.
type Io interface {
	// Op names the request for logs and errors.
	Op() string

	failure() error
}

// EntryKind classifies a directory entry.
type EntryKind uint8

const (
	EntryOther EntryKind = iota
	EntryDir
	EntryFile
)

// DirEntry is one immediate child of a listed directory. Path is the
// listed directory joined with the entry name.
type DirEntry struct {
	Path string
	Kind EntryKind
}

func (e DirEntry) IsDir() bool     { return e.Kind == EntryDir }
func (e DirEntry) IsRegular() bool { return e.Kind == EntryFile }

// RenamePair moves From onto To, replacing To if it exists.
type RenamePair struct {
	From string
	To   string
}

// CreateDirIo creates a single directory. It fails if the directory
// already exists.
type CreateDirIo struct {
	Path string
	Err  error
}

// RemoveDirIo removes a directory and everything under it.
type RemoveDirIo struct {
	Path string
	Err  error
}

// CreateFileIo writes Contents as the entire contents of Path.
type CreateFileIo struct {
	Path     string
	Contents []byte
	Err      error
}

// CreateFilesIo writes every Files entry as the entire contents of its key.
type CreateFilesIo struct {
	Files map[string][]byte
	Err   error
}

// ReadFileIo reads the entire contents of Path.
type ReadFileIo struct {
	Path     string
	Contents []byte
	Err      error
}

// ReadFilesIo reads every path in Paths into Contents, keyed by path.
// When Optional is set, paths that do not exist are left out of Contents
// instead of failing the batch.
type ReadFilesIo struct {
	Paths    []string
	Optional bool
	Contents map[string][]byte
	Err      error
}

// ReadDirIo lists the immediate entries of Path.
type ReadDirIo struct {
	Path    string
	Entries []DirEntry
	Err     error
}

// RemoveFileIo removes a single file.
type RemoveFileIo struct {
	Path string
	Err  error
}

// RenameIo applies Pairs in order. Handling stops at the first failure,
// so pairs before the failing one stay renamed.
type RenameIo struct {
	Pairs []RenamePair
	Err   error
}

func (io *CreateDirIo) Op() string   { return "create dir" }
func (io *RemoveDirIo) Op() string   { return "remove dir" }
func (io *CreateFileIo) Op() string  { return "create file" }
func (io *CreateFilesIo) Op() string { return "create files" }
func (io *ReadFileIo) Op() string    { return "read file" }
func (io *ReadFilesIo) Op() string   { return "read files" }
func (io *ReadDirIo) Op() string     { return "read dir" }
func (io *RemoveFileIo) Op() string  { return "remove file" }
func (io *RenameIo) Op() string      { return "rename" }

func (io *CreateDirIo) failure() error   { return io.Err }
func (io *RemoveDirIo) failure() error   { return io.Err }
func (io *CreateFileIo) failure() error  { return io.Err }
func (io *CreateFilesIo) failure() error { return io.Err }
func (io *ReadFileIo) failure() error    { return io.Err }
func (io *ReadFilesIo) failure() error   { return io.Err }
func (io *ReadDirIo) failure() error     { return io.Err }
func (io *RemoveFileIo) failure() error  { return io.Err }
func (io *RenameIo) failure() error      { return io.Err }
