package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"vdir/internal/agenda"
	"vdir/internal/config"
	"vdir/internal/fsio"
	appLog "vdir/internal/log"
	"vdir/internal/vdir"
	"vdir/internal/watch"
)

// envRoot overrides the configured store root.
const envRoot = "VDIR_ROOT"

var errUsage = errors.New("usage")

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "vdir: %v\n", err)
			os.Exit(2)
		}
		appLog.Error("vdir failed", err)
		os.Exit(1)
	}
}

// app carries what every command needs once global flags and the config
// are resolved.
type app struct {
	exec fsio.Executor
	cfg  *config.Config
	opts []vdir.Option
	out  io.Writer
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"collections", "", "list collections", cmdCollections},
	{"create-collection", "[--name N] [--description D] [--color C] [dir]", "create a collection", cmdCreateCollection},
	{"update-collection", "[--name N] [--description D] [--color C] <collection>", "replace collection metadata", cmdUpdateCollection},
	{"delete-collection", "<collection>", "delete a collection and its items", cmdDeleteCollection},
	{"items", "<collection>", "list the items of a collection", cmdItems},
	{"read", "<item>", "print an item", cmdRead},
	{"create-item", "<collection> <file.ics|file.vcf>", "add an item from a file", cmdCreateItem},
	{"update-item", "<item> <file>", "replace an item from a file", cmdUpdateItem},
	{"delete-item", "<item>", "delete an item", cmdDeleteItem},
	{"agenda", "[--days N] [--from YYYY-MM-DD]", "list upcoming events", cmdAgenda},
	{"watch", "[--schedule CRON]", "scan the store periodically", cmdWatch},
}

func run(ctx context.Context, args []string, out io.Writer, getenv func(string) string) error {
	var (
		configPath string
		root       string
		logLevel   string
		requireUID bool
	)

	flagSet := pflag.NewFlagSet("vdir", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	flagSet.StringVar(&root, "root", "", "store root directory (overrides $"+envRoot+" and config)")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flagSet.BoolVar(&requireUID, "require-ical-uid", false, "reject iCalendar items without a single shared UID")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(out, flagSet)
			return nil
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(out, flagSet)
		return nil
	}

	cfg, err := loadConfig(afero.NewOsFs(), configPath)
	if err != nil {
		return err
	}

	// Precedence: --root, then $VDIR_ROOT, then the config file.
	if env := getenv(envRoot); env != "" {
		cfg.Root = env
	}
	if root != "" {
		cfg.Root = root
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("require-ical-uid") {
		cfg.RequireICalUID = requireUID
	}

	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	appLog.SetLevel(level)

	appLog.Debug("effective config",
		"config_path", configPath,
		"root", cfg.Root,
		"log_level", cfg.LogLevel,
		"require_ical_uid", cfg.RequireICalUID,
		"timezone", cfg.Timezone,
		"horizon_days", cfg.HorizonDays,
		"refresh", cfg.Refresh,
	)

	a := &app{
		exec: fsio.OS(),
		cfg:  cfg,
		opts: []vdir.Option{vdir.RequireICalUID(cfg.RequireICalUID)},
		out:  out,
	}

	name, rest := flagSet.Arg(0), flagSet.Args()[1:]
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(ctx, a, rest)
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

// loadConfig loads the config at path. On a first run the defaults are
// used even when they cannot be written out, e.g. in a read-only home.
func loadConfig(fsys afero.Fs, path string) (*config.Config, error) {
	cfg, err := config.LoadFs(fsys, path)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		appLog.Warn("default config not saved, continuing with defaults", "config_path", path, "err", err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vdir.yaml"
	}
	return filepath.Join(dir, "vdir", "config.yaml")
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: vdir [flags] <command> [args]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-18s %s\n", cmd.name, cmd.summary)
		if cmd.usage != "" {
			fmt.Fprintf(w, "  %-18s   %s %s\n", "", cmd.name, cmd.usage)
		}
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}

// resolve maps a bare collection or item name to a path under the root.
func (a *app) resolve(arg string) string {
	if filepath.IsAbs(arg) || strings.ContainsRune(arg, filepath.Separator) {
		return arg
	}
	return filepath.Join(a.cfg.Root, arg)
}

// subFlags parses command flags and checks the positional argument count.
func subFlags(name string, args []string, lo, hi int, define func(*pflag.FlagSet)) ([]string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUsage, name, err)
	}
	if n := fs.NArg(); n < lo || n > hi {
		return nil, fmt.Errorf("%w: %s: expected %d to %d arguments, got %d", errUsage, name, lo, hi, n)
	}
	return fs.Args(), nil
}

func metadataFlags(c *vdir.Collection) func(*pflag.FlagSet) {
	return func(fs *pflag.FlagSet) {
		fs.StringVar(&c.DisplayName, "name", "", "display name")
		fs.StringVar(&c.Description, "description", "", "description")
		fs.StringVar(&c.Color, "color", "", "color, e.g. #ff0000")
	}
}

func cmdCollections(ctx context.Context, a *app, args []string) error {
	if _, err := subFlags("collections", args, 0, 0, nil); err != nil {
		return err
	}
	collections, err := fsio.Run(ctx, a.exec, vdir.NewListCollections(a.cfg.Root))
	if err != nil {
		return err
	}
	for _, c := range collections {
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", c.Path, c.DisplayName, c.Description, c.Color)
	}
	return nil
}

func cmdCreateCollection(ctx context.Context, a *app, args []string) error {
	var c vdir.Collection
	rest, err := subFlags("create-collection", args, 0, 1, metadataFlags(&c))
	if err != nil {
		return err
	}
	if len(rest) == 1 {
		c.Path = a.resolve(rest[0])
	} else {
		c.Path = vdir.NewCollection(a.cfg.Root).Path
	}

	if _, err := fsio.Run(ctx, a.exec, vdir.NewCreateCollection(c)); err != nil {
		return err
	}
	appLog.Info("collection created", "path", c.Path)
	fmt.Fprintln(a.out, c.Path)
	return nil
}

func cmdUpdateCollection(ctx context.Context, a *app, args []string) error {
	var c vdir.Collection
	rest, err := subFlags("update-collection", args, 1, 1, metadataFlags(&c))
	if err != nil {
		return err
	}
	c.Path = a.resolve(rest[0])

	if _, err := fsio.Run(ctx, a.exec, vdir.NewUpdateCollection(c)); err != nil {
		return err
	}
	appLog.Info("collection updated", "path", c.Path)
	return nil
}

func cmdDeleteCollection(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("delete-collection", args, 1, 1, nil)
	if err != nil {
		return err
	}
	path := a.resolve(rest[0])

	if _, err := fsio.Run(ctx, a.exec, vdir.NewDeleteCollection(path)); err != nil {
		return err
	}
	appLog.Info("collection deleted", "path", path)
	return nil
}

func cmdItems(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("items", args, 1, 1, nil)
	if err != nil {
		return err
	}
	items, err := fsio.Run(ctx, a.exec, vdir.NewListItems(a.resolve(rest[0]), a.opts...))
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", it.Path, it.Kind, it.ETag())
	}
	return nil
}

func cmdRead(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("read", args, 1, 1, nil)
	if err != nil {
		return err
	}
	item, err := fsio.Run(ctx, a.exec, vdir.NewReadItem(rest[0], a.opts...))
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, item.String())
	return err
}

// readInput parses an item from a file outside the store.
func (a *app) readInput(ctx context.Context, path string) (vdir.Item, error) {
	contents, err := fsio.Run(ctx, a.exec, fsio.NewReadFile(path))
	if err != nil {
		return vdir.Item{}, err
	}
	return vdir.ParseItem(path, contents, a.opts...)
}

func cmdCreateItem(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("create-item", args, 2, 2, nil)
	if err != nil {
		return err
	}
	collection := vdir.Collection{Path: a.resolve(rest[0])}

	input, err := a.readInput(ctx, rest[1])
	if err != nil {
		return err
	}

	var item vdir.Item
	switch input.Kind {
	case vdir.KindIcal:
		item = vdir.NewIcalItem(collection, input.Ical)
	default:
		item = vdir.NewVcardItem(collection, input.Vcard)
	}

	if _, err := fsio.Run(ctx, a.exec, vdir.NewCreateItem(item)); err != nil {
		return err
	}
	appLog.Info("item created", "path", item.Path, "kind", item.Kind.String())
	fmt.Fprintln(a.out, item.Path)
	return nil
}

func cmdUpdateItem(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("update-item", args, 2, 2, nil)
	if err != nil {
		return err
	}
	path := rest[0]

	current, err := fsio.Run(ctx, a.exec, vdir.NewReadItem(path, a.opts...))
	if err != nil {
		return err
	}
	input, err := a.readInput(ctx, rest[1])
	if err != nil {
		return err
	}
	if input.Kind != current.Kind {
		return fmt.Errorf("%w: update-item: %s holds a %s, input is a %s", errUsage, path, current.Kind, input.Kind)
	}

	input.Path = path
	if _, err := fsio.Run(ctx, a.exec, vdir.NewUpdateItem(input)); err != nil {
		return err
	}
	appLog.Info("item updated", "path", path)
	return nil
}

func cmdDeleteItem(ctx context.Context, a *app, args []string) error {
	rest, err := subFlags("delete-item", args, 1, 1, nil)
	if err != nil {
		return err
	}
	if _, err := fsio.Run(ctx, a.exec, vdir.NewDeleteItem(rest[0])); err != nil {
		return err
	}
	appLog.Info("item deleted", "path", rest[0])
	return nil
}

func cmdAgenda(ctx context.Context, a *app, args []string) error {
	days := a.cfg.HorizonDays
	from := ""
	if _, err := subFlags("agenda", args, 0, 0, func(fs *pflag.FlagSet) {
		fs.IntVar(&days, "days", days, "number of days to cover")
		fs.StringVar(&from, "from", "", "first day, YYYY-MM-DD (default today)")
	}); err != nil {
		return err
	}
	if days <= 0 {
		return fmt.Errorf("%w: agenda: --days must be positive", errUsage)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	now := time.Now()
	if from != "" {
		if now, err = time.ParseInLocation("2006-01-02", from, loc); err != nil {
			return fmt.Errorf("%w: agenda: --from: %v", errUsage, err)
		}
	}

	res, err := agenda.Build(ctx, a.exec, a.cfg.Root, agenda.Days(now, loc, days), a.opts...)
	if err != nil {
		return err
	}
	for _, occ := range res.Occurrences {
		when := occ.Start.Format("2006-01-02 15:04") + " - " + occ.End.Format("15:04")
		if occ.AllDay {
			when = occ.Start.Format("2006-01-02") + " all day"
		}
		line := when + "\t" + occ.Summary
		if occ.Location != "" {
			line += " @ " + occ.Location
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	schedule := a.cfg.Refresh
	if _, err := subFlags("watch", args, 0, 0, func(fs *pflag.FlagSet) {
		fs.StringVar(&schedule, "schedule", schedule, "cron schedule")
	}); err != nil {
		return err
	}

	scanner := watch.NewScanner(a.exec, a.cfg.Root, a.opts...)
	if err := scanner.Start(ctx, schedule); err != nil {
		return err
	}
	appLog.Info("watching store", "root", a.cfg.Root, "schedule", schedule)

	<-ctx.Done()
	appLog.Info("vdir exiting")
	return nil
}
