package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tuannm99/novabuf/internal"
	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
	"github.com/tuannm99/novabuf/pkg/util"
)

type options struct {
	configPath string
	fileName   string
	pages      int
	dump       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "novabuf:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, v *viper.Viper) (*options, error) {
	fs := pflag.NewFlagSet("novabuf", pflag.ContinueOnError)
	opts := &options{}

	fs.StringVarP(&opts.configPath, "config", "c", "", "config file (yaml)")
	fs.StringVar(&opts.fileName, "file", "demo", "name of the paged file to exercise")
	fs.IntVar(&opts.pages, "pages", 0, "pages to allocate (default 2x frames)")
	fs.BoolVar(&opts.dump, "dump", false, "print every frame descriptor")

	fs.Int("frames", 0, "buffer pool frames")
	fs.String("mode", "", "storage mode: disk|memory")
	fs.String("workdir", "", "directory for disk files")
	fs.Int("page-size", 0, "page size in bytes")
	fs.String("log-level", "", "debug|info|warn|error")
	fs.Bool("deadlock-detection", false, "check the pool lock for deadlocks")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for key, flag := range map[string]string{
		"bufferpool.frames":             "frames",
		"storage.mode":                  "mode",
		"storage.workdir":               "workdir",
		"storage.page_size":             "page-size",
		"log.level":                     "log-level",
		"bufferpool.deadlock_detection": "deadlock-detection",
	} {
		// only flags set on the command line override file and env
		if f := fs.Lookup(flag); f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	v := internal.NewViper()
	opts, err := parseFlags(args, v)
	if err != nil {
		return err
	}

	cfg, err := internal.Load(v, opts.configPath)
	if err != nil {
		return err
	}

	logger, err := internal.NewLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	bufferpool.SetDeadlockDetection(cfg.BufferPool.DeadlockDetection)

	mode, err := cfg.StorageMode()
	if err != nil {
		return err
	}
	file, err := storage.Open(mode, cfg.Storage.Workdir, opts.fileName, cfg.Storage.PageSize)
	if err != nil {
		return err
	}
	defer util.CloseFunc(file, "page file")

	mgr := bufferpool.NewManagerWithPageSize(cfg.BufferPool.Frames, cfg.Storage.PageSize)
	defer util.CloseFunc(mgr, "buffer pool")

	slog.Info("novabuf started",
		"app", cfg.AppName,
		"mode", mode,
		"frames", mgr.PoolSize(),
		"page_size", mgr.PageSize(),
		"file", file.Key(),
	)

	pages := opts.pages
	if pages <= 0 {
		pages = 2 * mgr.PoolSize()
	}
	if err := workload(mgr, file, pages); err != nil {
		return err
	}

	if opts.dump {
		if err := mgr.PrintSelf(stdout); err != nil {
			return err
		}
	}

	st := mgr.Stats()
	_, err = fmt.Fprintf(stdout, "pages=%d hits=%d misses=%d reads=%d writes=%d evictions=%d hit_ratio=%.2f\n",
		pages, st.Hits, st.Misses, st.Reads, st.Writes, st.Evictions, st.HitRatio())
	return err
}

// workload allocates pages, stamps each with its id, reads them back after
// they have been pushed out of the pool and finally flushes the file.
func workload(mgr *bufferpool.Manager, file storage.File, pages int) error {
	view := mgr.View(file)

	ids := make([]storage.PageID, 0, pages)
	for i := 0; i < pages; i++ {
		id, ref, err := view.AllocPage()
		if err != nil {
			return err
		}
		copy(ref.Data(), stamp(id))
		if err := ref.Release(true); err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		ref, err := view.ReadPage(id)
		if err != nil {
			return err
		}
		want := stamp(id)
		ok := bytes.Equal(ref.Data()[:len(want)], want)
		if err := ref.Release(false); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("page %s: content lost", id)
		}
	}

	return view.Flush()
}

func stamp(id storage.PageID) []byte {
	return []byte(fmt.Sprintf("novabuf page %08d", uint32(id)))
}
