package vdir

import (
	"sort"

	"vdir/internal/fsio"
)

const opListCollections = "list collections"

type listCollectionsStep uint8

const (
	listCollectionsReadRoot listCollectionsStep = iota
	listCollectionsReadMetadata
)

// ListCollections lists the collections directly under a root directory.
//
// Step one lists the root and keeps directories only; other entries are
// ignored. Step two reads the metadata files of every kept directory in
// one optional batch, so absent files simply leave the field unset.
type ListCollections struct {
	root string
	step listCollectionsStep

	readRoot     *fsio.ReadDir
	readMetadata *fsio.ReadFiles
	dirs         []string
}

func NewListCollections(root string) *ListCollections {
	return &ListCollections{
		root:     root,
		step:     listCollectionsReadRoot,
		readRoot: fsio.NewReadDir(root),
	}
}

func (c *ListCollections) Resume(arg fsio.Io) fsio.Result[[]Collection] {
	if c.step == listCollectionsReadRoot {
		res := c.readRoot.Resume(arg)
		if res.Suspended() {
			return fsio.Suspend[[]Collection](res.Io)
		}
		if res.Err != nil {
			return fsio.Fail[[]Collection](newError(opListCollections, ErrListCollections, c.root, res.Err))
		}

		for _, entry := range res.Value {
			if entry.IsDir() {
				c.dirs = append(c.dirs, entry.Path)
			}
		}
		if len(c.dirs) == 0 {
			return fsio.Done([]Collection{})
		}
		sort.Strings(c.dirs)

		paths := make([]string, 0, 3*len(c.dirs))
		for _, dir := range c.dirs {
			candidates := metadataPaths(dir)
			paths = append(paths, candidates[:]...)
		}

		c.readMetadata = fsio.NewReadFiles(paths, true)
		c.step = listCollectionsReadMetadata
		arg = nil
	}

	res := c.readMetadata.Resume(arg)
	if res.Suspended() {
		return fsio.Suspend[[]Collection](res.Io)
	}
	if res.Err != nil {
		return fsio.Fail[[]Collection](newError(opListCollections, ErrReadCollectionMetadata, c.root, res.Err))
	}

	metadata := res.Value
	collections := make([]Collection, 0, len(c.dirs))
	for _, dir := range c.dirs {
		paths := metadataPaths(dir)
		name, hasName := metadata[paths[0]]
		desc, hasDesc := metadata[paths[1]]
		color, hasColor := metadata[paths[2]]

		collections = append(collections, Collection{
			Path:        dir,
			DisplayName: metadataValue(name, hasName),
			Description: metadataValue(desc, hasDesc),
			Color:       metadataValue(color, hasColor),
		})
	}
	return fsio.Done(collections)
}
