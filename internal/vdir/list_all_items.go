package vdir

import "vdir/internal/fsio"

// CollectionItems pairs a collection with its items.
type CollectionItems struct {
	Collection Collection
	Items      []Item
}

type listAllItemsStep uint8

const (
	listAllItemsCollections listAllItemsStep = iota
	listAllItemsItems
)

// ListAllItems lists every collection under root and then the items of
// each, one collection at a time, inside a single resumable value. Errors
// of the inner workflows are returned unchanged.
type ListAllItems struct {
	opts []Option
	step listAllItemsStep

	listCollections *ListCollections
	listItems       *ListItems
	out             []CollectionItems
	next            int
}

func NewListAllItems(root string, opts ...Option) *ListAllItems {
	return &ListAllItems{
		opts:            opts,
		step:            listAllItemsCollections,
		listCollections: NewListCollections(root),
	}
}

func (c *ListAllItems) Resume(arg fsio.Io) fsio.Result[[]CollectionItems] {
	if c.step == listAllItemsCollections {
		res := c.listCollections.Resume(arg)
		if res.Suspended() {
			return fsio.Suspend[[]CollectionItems](res.Io)
		}
		if res.Err != nil {
			return fsio.Fail[[]CollectionItems](res.Err)
		}

		c.out = make([]CollectionItems, 0, len(res.Value))
		for _, collection := range res.Value {
			c.out = append(c.out, CollectionItems{Collection: collection})
		}
		if len(c.out) == 0 {
			return fsio.Done(c.out)
		}

		c.listItems = NewListItems(c.out[0].Collection.Path, c.opts...)
		c.step = listAllItemsItems
		arg = nil
	}

	for {
		res := c.listItems.Resume(arg)
		if res.Suspended() {
			return fsio.Suspend[[]CollectionItems](res.Io)
		}
		if res.Err != nil {
			return fsio.Fail[[]CollectionItems](res.Err)
		}

		c.out[c.next].Items = res.Value
		c.next++
		if c.next == len(c.out) {
			return fsio.Done(c.out)
		}

		c.listItems = NewListItems(c.out[c.next].Collection.Path, c.opts...)
		arg = nil
	}
}
