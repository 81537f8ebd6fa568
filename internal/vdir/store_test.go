package vdir

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdir/internal/fsio"
	"vdir/internal/ics"
	"vdir/internal/vcf"
)

const standupICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//vdir//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup-1\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250106T090000Z\r\n" +
	"DTEND:20250106T091500Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func mustVcard(t *testing.T, uid string) vcard.Card {
	t.Helper()
	card, err := vcf.Parse("BEGIN:VCARD\r\nUID:" + uid + "\r\nEND:VCARD\r\n")
	require.NoError(t, err)
	return card
}

func mustIcal(t *testing.T, text string) Item {
	t.Helper()
	cal, err := ics.Parse(text, ics.Options{})
	require.NoError(t, err)
	return Item{Kind: KindIcal, Ical: cal}
}

type store struct {
	exec *fsio.FsExecutor
	root string
}

func stores(t *testing.T) map[string]store {
	t.Helper()
	out := map[string]store{
		"Memory": {exec: fsio.Memory(), root: "/vdir"},
		"OS":     {exec: fsio.OS(), root: t.TempDir()},
	}
	for _, s := range out {
		require.NoError(t, s.exec.Fs().MkdirAll(s.root, 0o755))
	}
	return out
}

func run[T any](t *testing.T, exec fsio.Executor, co fsio.Coroutine[T]) T {
	t.Helper()
	v, err := fsio.Run(context.Background(), exec, co)
	require.NoError(t, err)
	return v
}

func TestEndToEnd(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, run(t, s.exec, NewListCollections(s.root)))

			cal := Collection{Path: filepath.Join(s.root, "cal")}
			run(t, s.exec, NewCreateCollection(cal))
			assert.Equal(t, []Collection{cal}, run(t, s.exec, NewListCollections(s.root)))

			item := NewVcardItem(cal, mustVcard(t, "abc123"))
			run(t, s.exec, NewCreateItem(item))

			items := run(t, s.exec, NewListItems(cal.Path))
			require.Len(t, items, 1)
			assert.Equal(t, item.Path, items[0].Path)
			assert.Equal(t, KindVcard, items[0].Kind)
			assert.Equal(t, "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:abc123\r\nEND:VCARD\r\n", items[0].String())

			item.Vcard = mustVcard(t, "def456")
			run(t, s.exec, NewUpdateItem(item))

			items = run(t, s.exec, NewListItems(cal.Path))
			require.Len(t, items, 1)
			assert.Equal(t, "def456", vcf.UID(items[0].Vcard))

			exists, err := afero.Exists(s.exec.Fs(), tempPath(item.Path))
			require.NoError(t, err)
			assert.False(t, exists, "temporary file left behind")

			run(t, s.exec, NewDeleteItem(item.Path))
			assert.Empty(t, run(t, s.exec, NewListItems(cal.Path)))

			run(t, s.exec, NewDeleteCollection(cal.Path))
			assert.Empty(t, run(t, s.exec, NewListCollections(s.root)))
		})
	}
}

func TestCollectionMetadata(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			work := Collection{
				Path:        filepath.Join(s.root, "work"),
				DisplayName: "Work",
				Description: "Meetings and deadlines",
				Color:       "#ff0000",
			}
			run(t, s.exec, NewCreateCollection(work))

			blank := Collection{Path: filepath.Join(s.root, "blank"), DisplayName: "   \n"}
			run(t, s.exec, NewCreateCollection(blank))

			got := run(t, s.exec, NewListCollections(s.root))
			assert.Equal(t, []Collection{{Path: blank.Path}, work}, got)

			// Re-creating is a conflict and leaves the metadata alone.
			_, err := fsio.Run(ctx, s.exec, NewCreateCollection(Collection{Path: work.Path, DisplayName: "Other"}))
			assert.ErrorIs(t, err, ErrCollectionExists)
			got = run(t, s.exec, NewListCollections(s.root))
			assert.Equal(t, work, got[1])

			// Unset fields keep their stored value.
			run(t, s.exec, NewUpdateCollection(Collection{Path: work.Path, Color: "#00ff00"}))
			got = run(t, s.exec, NewListCollections(s.root))
			want := work
			want.Color = "#00ff00"
			assert.Equal(t, want, got[1])

			entries, err := afero.ReadDir(s.exec.Fs(), work.Path)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotEqual(t, TmpExt, extension(e.Name()), "temporary file %s left behind", e.Name())
			}
		})
	}
}

func TestCollectionEqualityIncludesMetadata(t *testing.T) {
	a := Collection{Path: "/vdir/cal", DisplayName: "Cal"}
	b := Collection{Path: "/vdir/cal"}
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Collection{Path: "/vdir/cal", DisplayName: "Cal"})
}

func TestCreateCollectionOnMissingRoot(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			root := filepath.Join(s.root, "missing")

			_, err := fsio.Run(ctx, s.exec, NewCreateCollection(Collection{Path: filepath.Join(root, "cal")}))
			assert.ErrorIs(t, err, ErrCreateCollection)
			assert.ErrorIs(t, err, fs.ErrNotExist)

			_, err = fsio.Run(ctx, s.exec, NewListCollections(root))
			assert.ErrorIs(t, err, ErrListCollections)
		})
	}
}

func TestListItemsSkipsInvalidFiles(t *testing.T) {
	exec := fsio.Memory()
	fsys := exec.Fs()
	dir := "/vdir/cal"
	require.NoError(t, fsys.MkdirAll(dir, 0o755))

	files := map[string]string{
		"good.vcf":    "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:good\r\nEND:VCARD\r\n",
		"good.ics":    standupICS,
		"notes.txt":   "not an item",
		"broken.vcf":  "this is not a vCard",
		"binary.ics":  "\xff\xfe\x00",
		"displayname": "Cal",
	}
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, fsys.Mkdir(filepath.Join(dir, "nested.ics"), 0o755))

	items := run(t, exec, NewListItems(dir))
	require.Len(t, items, 2)
	assert.Equal(t, filepath.Join(dir, "good.ics"), items[0].Path)
	assert.Equal(t, KindIcal, items[0].Kind)
	assert.Equal(t, filepath.Join(dir, "good.vcf"), items[1].Path)
	assert.Equal(t, KindVcard, items[1].Kind)
}

func TestReadItem(t *testing.T) {
	exec := fsio.Memory()
	fsys := exec.Fs()
	dir := "/vdir/cal"
	require.NoError(t, fsys.MkdirAll(dir, 0o755))

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, afero.WriteFile(fsys, path, []byte(body), 0o644))
		return path
	}

	t.Run("Ical", func(t *testing.T) {
		path := write("standup.ics", standupICS)
		item := run(t, exec, NewReadItem(path))
		assert.Equal(t, KindIcal, item.Kind)
		require.NotNil(t, item.Ical)
		uid, err := ics.UID(item.Ical)
		require.NoError(t, err)
		assert.Equal(t, "standup-1", uid)
	})

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "MissingExtension", path: write("noext", "x"), want: ErrMissingExtension},
		{name: "Missing", path: filepath.Join(dir, "absent.vcf"), want: ErrReadItem},
		{name: "InvalidUTF8", path: write("bin.vcf", "\xff\xfe"), want: ErrInvalidContents},
		{name: "InvalidExtension", path: write("notes.txt", "hello"), want: ErrInvalidExtension},
		{name: "InvalidVcard", path: write("bad.vcf", "hello"), want: ErrInvalidVcard},
		{name: "TwoVcards", path: write("two.vcf", "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:a\r\nEND:VCARD\r\nBEGIN:VCARD\r\nVERSION:4.0\r\nUID:b\r\nEND:VCARD\r\n"), want: ErrInvalidVcard},
		{name: "InvalidIcal", path: write("bad.ics", "hello"), want: ErrInvalidIcal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fsio.Run(context.Background(), exec, NewReadItem(tt.path))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequireICalUID(t *testing.T) {
	exec := fsio.Memory()
	fsys := exec.Fs()
	path := "/vdir/cal/nouid.ics"
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//vdir//test//EN\r\n" +
		"BEGIN:VEVENT\r\nDTSTART:20250106T090000Z\r\nSUMMARY:No uid\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	require.NoError(t, afero.WriteFile(fsys, path, []byte(body), 0o644))

	_, err := fsio.Run(context.Background(), exec, NewReadItem(path))
	assert.NoError(t, err)

	_, err = fsio.Run(context.Background(), exec, NewReadItem(path, RequireICalUID(true)))
	assert.ErrorIs(t, err, ErrInvalidIcal)
	assert.ErrorIs(t, err, ics.ErrMissingUID)

	items := run(t, exec, NewListItems("/vdir/cal", RequireICalUID(true)))
	assert.Empty(t, items)
}

func TestListAllItems(t *testing.T) {
	exec := fsio.Memory()
	root := "/vdir"
	require.NoError(t, exec.Fs().MkdirAll(root, 0o755))

	assert.Empty(t, run(t, exec, NewListAllItems(root)))

	cal := Collection{Path: filepath.Join(root, "cal"), DisplayName: "Calendar"}
	contacts := Collection{Path: filepath.Join(root, "contacts")}
	empty := Collection{Path: filepath.Join(root, "empty")}
	for _, c := range []Collection{cal, contacts, empty} {
		run(t, exec, NewCreateCollection(c))
	}

	event := mustIcal(t, standupICS)
	event.Path = filepath.Join(cal.Path, "standup.ics")
	run(t, exec, NewCreateItem(event))
	run(t, exec, NewCreateItem(NewVcardItem(contacts, mustVcard(t, "a"))))
	run(t, exec, NewCreateItem(NewVcardItem(contacts, mustVcard(t, "b"))))

	all := run(t, exec, NewListAllItems(root))
	require.Len(t, all, 3)
	assert.Equal(t, cal, all[0].Collection)
	assert.Len(t, all[0].Items, 1)
	assert.Equal(t, contacts, all[1].Collection)
	assert.Len(t, all[1].Items, 2)
	assert.Equal(t, empty, all[2].Collection)
	assert.Empty(t, all[2].Items)
}

func TestListAllItemsPassesInnerErrors(t *testing.T) {
	_, err := fsio.Run(context.Background(), fsio.Memory(), NewListAllItems("/nowhere"))
	assert.ErrorIs(t, err, ErrListCollections)
}

// renameOnce performs only the first pair of a rename batch, then fails.
type renameOnce struct {
	*fsio.FsExecutor
}

func (e renameOnce) Handle(ctx context.Context, req fsio.Io) error {
	rename, ok := req.(*fsio.RenameIo)
	if !ok || len(rename.Pairs) < 2 {
		return e.FsExecutor.Handle(ctx, req)
	}
	first := &fsio.RenameIo{Pairs: rename.Pairs[:1]}
	if err := e.FsExecutor.Handle(ctx, first); err != nil {
		return err
	}
	rename.Err = errInjected
	return nil
}

func TestUpdateCollectionPartialRename(t *testing.T) {
	mem := fsio.Memory()
	require.NoError(t, mem.Fs().MkdirAll("/vdir", 0o755))

	old := Collection{Path: "/vdir/cal", DisplayName: "Old name", Description: "Old desc", Color: "#111111"}
	run(t, mem, NewCreateCollection(old))

	_, err := fsio.Run(context.Background(), renameOnce{mem}, NewUpdateCollection(Collection{
		Path:        old.Path,
		DisplayName: "New name",
		Description: "New desc",
		Color:       "#222222",
	}))
	require.ErrorIs(t, err, ErrSaveCollectionMetadata)

	// Each file holds either its old or its new value, never a mix.
	got := run(t, mem, NewListCollections("/vdir"))
	require.Len(t, got, 1)
	assert.Equal(t, "New name", got[0].DisplayName)
	assert.Equal(t, "Old desc", got[0].Description)
	assert.Equal(t, "#111111", got[0].Color)
}

func TestItemHelpers(t *testing.T) {
	assert.Equal(t, "/a/b.tmp", tempPath("/a/b.ics"))
	assert.Equal(t, "/a/b.tmp", tempPath("/a/b.vcf"))
	assert.Equal(t, "/a/displayname.tmp", tempPath("/a/displayname"))
	assert.Equal(t, "/a/.ics.tmp", tempPath("/a/.ics"))

	assert.Equal(t, "ics", extension("/a/b.ics"))
	assert.Equal(t, "", extension("/a/.ics"))
	assert.Equal(t, "", extension("/a.d/b"))

	c := Collection{Path: "/vdir/cal"}
	it := NewIcalItem(c, nil)
	assert.Equal(t, "/vdir/cal", filepath.Dir(it.Path))
	assert.Equal(t, IcsExt, extension(it.Path))
	assert.Equal(t, KindIcal, it.Kind)

	card := NewVcardItem(c, mustVcard(t, "x"))
	assert.Equal(t, VcfExt, card.Extension())
	assert.NotEqual(t, it.Path, card.Path)

	etag := card.ETag()
	assert.Len(t, etag, 64)
	assert.Equal(t, etag, card.ETag())
	card.Vcard = mustVcard(t, "y")
	assert.NotEqual(t, etag, card.ETag())

	assert.Equal(t, "vcard", KindVcard.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
