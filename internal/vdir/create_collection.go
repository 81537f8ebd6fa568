package vdir

import (
	"errors"
	"io/fs"

	"vdir/internal/fsio"
)

const opCreateCollection = "create collection"

type createCollectionStep uint8

const (
	createCollectionDir createCollectionStep = iota
	createCollectionMetadata
)

// CreateCollection creates the collection directory, then its metadata
// files in one batch if any metadata is set. A failure while writing the
// metadata leaves the directory in place.
type CreateCollection struct {
	collection Collection
	step       createCollectionStep

	createDir      *fsio.CreateDir
	createMetadata *fsio.CreateFiles
}

func NewCreateCollection(c Collection) *CreateCollection {
	return &CreateCollection{
		collection: c,
		step:       createCollectionDir,
		createDir:  fsio.NewCreateDir(c.Path),
	}
}

func (c *CreateCollection) Resume(arg fsio.Io) fsio.Result[struct{}] {
	path := c.collection.Path

	if c.step == createCollectionDir {
		res := c.createDir.Resume(arg)
		if res.Suspended() {
			return fsio.Suspend[struct{}](res.Io)
		}
		if res.Err != nil {
			kind := ErrCreateCollection
			if errors.Is(res.Err, fs.ErrExist) {
				kind = ErrCollectionExists
			}
			return fsio.Fail[struct{}](newError(opCreateCollection, kind, path, res.Err))
		}

		files := c.collection.metadata()
		if len(files) == 0 {
			return fsio.Done(struct{}{})
		}

		contents := make(map[string][]byte, len(files))
		for _, f := range files {
			contents[f.path] = []byte(f.value)
		}
		c.createMetadata = fsio.NewCreateFiles(contents)
		c.step = createCollectionMetadata
		arg = nil
	}

	res := c.createMetadata.Resume(arg)
	if res.Suspended() {
		return fsio.Suspend[struct{}](res.Io)
	}
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opCreateCollection, ErrCreateCollectionMetadata, path, res.Err))
	}
	return fsio.Done(struct{}{})
}
