// Package watch periodically scans a vdir store and reports its shape:
// how many collections and items it holds, and which temporary files an
// interrupted update left behind. It never modifies the store.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"vdir/internal/fsio"
	appLog "vdir/internal/log"
	"vdir/internal/vdir"
)

// Report is the result of one scan.
type Report struct {
	Collections int
	Items       int
	// StaleTemp holds the paths of leftover "*.tmp" files, sorted.
	StaleTemp []string
}

// Scanner scans one store through an executor.
type Scanner struct {
	exec fsio.Executor
	root string
	opts []vdir.Option

	mu   sync.Mutex
	last Report
}

func NewScanner(exec fsio.Executor, root string, opts ...vdir.Option) *Scanner {
	return &Scanner{exec: exec, root: root, opts: opts}
}

// Scan lists every collection and item and looks for temporary files in
// each collection.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	all, err := fsio.Run(ctx, s.exec, vdir.NewListAllItems(s.root, s.opts...))
	if err != nil {
		return Report{}, err
	}

	rep := Report{Collections: len(all), StaleTemp: []string{}}

	dirs := make([]string, 0, len(all))
	for _, ci := range all {
		rep.Items += len(ci.Items)
		dirs = append(dirs, ci.Collection.Path)
	}

	for _, dir := range dirs {
		entries, err := fsio.Run(ctx, s.exec, fsio.NewReadDir(dir))
		if err != nil {
			return Report{}, fmt.Errorf("watch: scan %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsRegular() && isTemp(e.Path) {
				rep.StaleTemp = append(rep.StaleTemp, e.Path)
			}
		}
	}
	sort.Strings(rep.StaleTemp)

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	return rep, nil
}

// Last returns the report of the most recent successful scan.
func (s *Scanner) Last() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func isTemp(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "."+vdir.TmpExt) && base != "."+vdir.TmpExt
}

// Start runs a scan immediately, then on every tick of the cron schedule,
// until ctx is cancelled. It returns once the schedule is registered.
func (s *Scanner) Start(ctx context.Context, schedule string) error {
	c := cron.New()

	job := func() {
		rep, err := s.Scan(ctx)
		if err != nil {
			appLog.Error("watch: scan failed", err, "root", s.root)
			return
		}
		appLog.Info("watch: scan complete",
			"root", s.root,
			"collections", rep.Collections,
			"items", rep.Items,
			"stale_temp", len(rep.StaleTemp),
		)
		for _, path := range rep.StaleTemp {
			appLog.Warn("watch: leftover temporary file", "path", path)
		}
	}

	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("watch: invalid schedule %q: %w", schedule, err)
	}

	go job()
	c.Start()

	go func() {
		<-ctx.Done()
		stopCtx := c.Stop()
		<-stopCtx.Done()
		appLog.Info("watch: stopped", "root", s.root)
	}()

	return nil
}
