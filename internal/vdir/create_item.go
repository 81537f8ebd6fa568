package vdir

import "vdir/internal/fsio"

const (
	opCreateItem = "create item"
	opDeleteItem = "delete item"
)

// CreateItem writes the canonical serialization of an item as a new file
// at the item's path.
type CreateItem struct {
	path   string
	create *fsio.CreateFile
}

func NewCreateItem(item Item) *CreateItem {
	return &CreateItem{
		path:   item.Path,
		create: fsio.NewCreateFile(item.Path, []byte(item.String())),
	}
}

func (c *CreateItem) Resume(arg fsio.Io) fsio.Result[struct{}] {
	res := c.create.Resume(arg)
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opCreateItem, ErrCreateItem, c.path, res.Err))
	}
	return res
}

// DeleteItem removes an item file.
type DeleteItem struct {
	path   string
	remove *fsio.RemoveFile
}

func NewDeleteItem(path string) *DeleteItem {
	return &DeleteItem{path: path, remove: fsio.NewRemoveFile(path)}
}

func (c *DeleteItem) Resume(arg fsio.Io) fsio.Result[struct{}] {
	res := c.remove.Resume(arg)
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opDeleteItem, ErrDeleteItem, c.path, res.Err))
	}
	return res
}
