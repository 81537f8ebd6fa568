package vdir

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Collection is a directory holding items, plus its optional metadata.
//
// An empty metadata field means unset: no file is written for it, and a
// metadata file that is missing or holds only whitespace reads back as
// empty. Collections compare by value (path and metadata).
type Collection struct {
	Path        string
	DisplayName string
	Description string
	Color       string
}

// NewCollection returns a collection under root with a random directory
// name. Nothing is created on disk.
func NewCollection(root string) Collection {
	return Collection{Path: filepath.Join(root, uuid.NewString())}
}

// HasMetadata reports whether any metadata field is set.
func (c Collection) HasMetadata() bool {
	return len(c.metadata()) > 0
}

type metadataFile struct {
	path  string
	value string
}

// metadata lists the set metadata fields as files, in a fixed order.
func (c Collection) metadata() []metadataFile {
	var files []metadataFile
	for _, f := range []metadataFile{
		{path: filepath.Join(c.Path, DisplayName), value: c.DisplayName},
		{path: filepath.Join(c.Path, Description), value: c.Description},
		{path: filepath.Join(c.Path, Color), value: c.Color},
	} {
		if f.value != "" {
			files = append(files, f)
		}
	}
	return files
}

// metadataPaths returns the three candidate metadata files of dir.
func metadataPaths(dir string) [3]string {
	return [3]string{
		filepath.Join(dir, DisplayName),
		filepath.Join(dir, Description),
		filepath.Join(dir, Color),
	}
}

// metadataValue decodes a metadata file. Invalid UTF-8 is replaced
// rather than rejected; blank contents mean unset.
func metadataValue(contents []byte, ok bool) string {
	if !ok {
		return ""
	}
	value := strings.ToValidUTF8(string(contents), "�")
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}
