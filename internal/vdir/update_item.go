package vdir

import "vdir/internal/fsio"

const opUpdateItem = "update item"

type updateItemStep uint8

const (
	updateItemCreateTemp updateItemStep = iota
	updateItemRename
)

// UpdateItem replaces an item file atomically: the new serialization is
// written to the item's "<id>.tmp" sibling, then renamed onto the item
// path. The item path always holds either the old or the new contents.
type UpdateItem struct {
	path    string
	tmpPath string
	step    updateItemStep

	createTemp *fsio.CreateFile
	rename     *fsio.Rename
}

func NewUpdateItem(item Item) *UpdateItem {
	tmp := tempPath(item.Path)
	return &UpdateItem{
		path:       item.Path,
		tmpPath:    tmp,
		step:       updateItemCreateTemp,
		createTemp: fsio.NewCreateFile(tmp, []byte(item.String())),
	}
}

func (c *UpdateItem) Resume(arg fsio.Io) fsio.Result[struct{}] {
	if c.step == updateItemCreateTemp {
		res := c.createTemp.Resume(arg)
		if res.Suspended() {
			return res
		}
		if res.Err != nil {
			return fsio.Fail[struct{}](newError(opUpdateItem, ErrCreateItemTemp, c.tmpPath, res.Err))
		}

		c.rename = fsio.NewRename(fsio.RenamePair{From: c.tmpPath, To: c.path})
		c.step = updateItemRename
		arg = nil
	}

	res := c.rename.Resume(arg)
	if res.Err != nil {
		return fsio.Fail[struct{}](newError(opUpdateItem, ErrSaveItem, c.path, res.Err))
	}
	return res
}
