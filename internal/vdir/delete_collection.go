package vdir

import "vdir/internal/fsio"

const opDeleteCollection = "delete collection"

// DeleteCollection removes a collection directory and everything in it.
type DeleteCollection struct {
	path   string
	remove *fsio.RemoveDir
}

func NewDeleteCollection(path string) *DeleteCollection {
	return &DeleteCollection{path: path, remove: fsio.NewRemoveDir(path)}
}

func (c *DeleteCollection) Resume(arg fsio.Io) fsio.Result[struct{}] {
	res := c.remove.Resume(arg)
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opDeleteCollection, ErrDeleteCollection, c.path, res.Err))
	}
	return res
}
