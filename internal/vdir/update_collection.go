package vdir

import "vdir/internal/fsio"

const opUpdateCollection = "update collection"

type updateCollectionStep uint8

const (
	updateCollectionNothing updateCollectionStep = iota
	updateCollectionCreateTemp
	updateCollectionRename
)

// UpdateCollection replaces the metadata files of a collection without
// ever exposing a half-written file: each set field is first written to
// "<name>.tmp" next to its final path, then all temporary files are
// renamed onto their final paths in one batch.
//
// Unset fields are left untouched on disk. A collection with no metadata
// set completes without any I/O. Nothing is rolled back on failure.
type UpdateCollection struct {
	path string
	step updateCollectionStep

	createTemp *fsio.CreateFiles
	rename     *fsio.Rename
	pairs      []fsio.RenamePair
}

func NewUpdateCollection(c Collection) *UpdateCollection {
	u := &UpdateCollection{path: c.Path, step: updateCollectionNothing}

	files := c.metadata()
	if len(files) == 0 {
		return u
	}

	contents := make(map[string][]byte, len(files))
	for _, f := range files {
		tmp := tempPath(f.path)
		contents[tmp] = []byte(f.value)
		u.pairs = append(u.pairs, fsio.RenamePair{From: tmp, To: f.path})
	}

	u.createTemp = fsio.NewCreateFiles(contents)
	u.step = updateCollectionCreateTemp
	return u
}

func (c *UpdateCollection) Resume(arg fsio.Io) fsio.Result[struct{}] {
	switch c.step {
	case updateCollectionNothing:
		return fsio.Done(struct{}{})

	case updateCollectionCreateTemp:
		res := c.createTemp.Resume(arg)
		if res.Suspended() {
			return res
		}
		if res.Err != nil {
			return fsio.Fail[struct{}](newError(opUpdateCollection, ErrCreateCollectionMetadataTemp, c.path, res.Err))
		}

		c.rename = fsio.NewRename(c.pairs...)
		c.step = updateCollectionRename
		arg = nil
	}

	res := c.rename.Resume(arg)
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opUpdateCollection, ErrSaveCollectionMetadata, c.path, res.Err))
	}
	return res
}
