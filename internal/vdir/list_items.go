package vdir

import (
	"sort"

	"vdir/internal/fsio"
)

const opListItems = "list items"

type listItemsStep uint8

const (
	listItemsReadDir listItemsStep = iota
	listItemsReadFiles
)

// ListItems lists the items of one collection.
//
// Only regular files with the ics or vcf extension are read. Files that
// are not valid UTF-8 or fail to parse are left out of the result, so a
// single corrupt item never hides the others. Only the directory listing
// and the batch read report errors.
type ListItems struct {
	dir  string
	opts options
	step listItemsStep

	readDir   *fsio.ReadDir
	readFiles *fsio.ReadFiles
}

func NewListItems(dir string, opts ...Option) *ListItems {
	return &ListItems{
		dir:     dir,
		opts:    buildOptions(opts),
		step:    listItemsReadDir,
		readDir: fsio.NewReadDir(dir),
	}
}

func (c *ListItems) Resume(arg fsio.Io) fsio.Result[[]Item] {
	if c.step == listItemsReadDir {
		res := c.readDir.Resume(arg)
		if res.Suspended() {
			return fsio.Suspend[[]Item](res.Io)
		}
		if res.Err != nil {
			return fsio.Fail[[]Item](newError(opListItems, ErrListItems, c.dir, res.Err))
		}

		var paths []string
		for _, entry := range res.Value {
			if !entry.IsRegular() {
				continue
			}
			if _, ok := kindOf(extension(entry.Path)); ok {
				paths = append(paths, entry.Path)
			}
		}
		if len(paths) == 0 {
			return fsio.Done([]Item{})
		}

		c.readFiles = fsio.NewReadFiles(paths, false)
		c.step = listItemsReadFiles
		arg = nil
	}

	res := c.readFiles.Resume(arg)
	if res.Suspended() {
		return fsio.Suspend[[]Item](res.Io)
	}
	if res.Err != nil {
		return fsio.Fail[[]Item](newError(opListItems, ErrReadItems, c.dir, res.Err))
	}

	items := make([]Item, 0, len(res.Value))
	for path, contents := range res.Value {
		item, err := decodeItem(opListItems, path, contents, c.opts)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	return fsio.Done(items)
}
