// Package vdir implements a vdir store as I/O-free, resumable workflows.
//
// A vdir root holds one directory per collection (a calendar or an
// address book). Each collection holds one file per item and up to three
// metadata files:
//
//	<root>/
//	  <collection>/
//	    displayname
//	    description
//	    color
//	    <item-id>.ics
//	    <item-id>.vcf
//
// Every workflow (list/create/update/delete collections, list/read/
// create/update/delete items) is a state machine driven through
// Resume(fsio.Io) fsio.Result[T]: it suspends on each filesystem request
// and continues with the handled request. Use fsio.Run to drive one with
// an executor.
package vdir

const (
	// DisplayName is the metadata file holding the collection's display name.
	DisplayName = "displayname"
	// Description is the metadata file holding the collection's description.
	Description = "description"
	// Color is the metadata file holding the collection's color.
	Color = "color"

	// TmpExt is the extension updates are staged under before the rename.
	TmpExt = "tmp"
	// VcfExt is the extension of vCard items.
	VcfExt = "vcf"
	// IcsExt is the extension of iCalendar items.
	IcsExt = "ics"
)
