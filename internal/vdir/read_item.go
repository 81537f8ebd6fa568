package vdir

import "vdir/internal/fsio"

const opReadItem = "read item"

// ReadItem reads and parses the item at a known path. Unlike ListItems
// it reports every failure: a path without extension fails before any
// I/O, then read errors, invalid UTF-8, unknown extensions and parse
// errors each get their own kind.
type ReadItem struct {
	path string
	opts options
	read *fsio.ReadFile
}

func NewReadItem(path string, opts ...Option) *ReadItem {
	return &ReadItem{
		path: path,
		opts: buildOptions(opts),
		read: fsio.NewReadFile(path),
	}
}

func (c *ReadItem) Resume(arg fsio.Io) fsio.Result[Item] {
	if extension(c.path) == "" {
		return fsio.Fail[Item](newError(opReadItem, ErrMissingExtension, c.path, nil))
	}

	res := c.read.Resume(arg)
	if res.Suspended() {
		return fsio.Suspend[Item](res.Io)
	}
	if res.Err != nil {
		return fsio.Fail[Item](newError(opReadItem, ErrReadItem, c.path, res.Err))
	}

	item, err := decodeItem(opReadItem, c.path, res.Value, c.opts)
	if err != nil {
		return fsio.Fail[Item](err)
	}
	return fsio.Done(item)
}
