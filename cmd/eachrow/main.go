package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"
	"github.com/goccy/go-json"

	"github.com/reoring/eachrow/i18n"
	"github.com/reoring/eachrow/internal/logging"
	"github.com/reoring/eachrow/schemafile"
	"github.com/reoring/eachrow/server"
	"github.com/reoring/eachrow/source"
	"github.com/reoring/eachrow/table"
)

var VERSION = "dev"

func main() {
	c := Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}
	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	log, closeLog, err := logging.Setup(c.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(2)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, c, log, os.Stdout); err != nil {
		log.Error("eachrow failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, c Config, log *slog.Logger, stdout io.Writer) error {
	i18n.SetLanguage(c.Language)
	if c.Schema == "" {
		return errors.New("-schema is required")
	}
	defs, err := schemafile.LoadFile(c.Schema)
	if err != nil {
		return err
	}
	catalog := table.NewCatalog()
	if err := catalog.Create(defs...); err != nil {
		return err
	}

	if c.Input != "" {
		name := c.Table
		if name == "" {
			if len(defs) != 1 {
				return errors.New("-table is required when the schema file defines several tables")
			}
			name = defs[0].Name
		}
		t, err := catalog.Get(name)
		if err != nil {
			return err
		}
		if err := ingest(ctx, t, c.Input, log); err != nil {
			return err
		}
		if c.Print {
			if err := printTable(t, stdout); err != nil {
				return err
			}
		}
	}

	if c.HttpAddr != "" {
		return serve(ctx, catalog, c.HttpAddr, log)
	}
	return nil
}

func ingest(ctx context.Context, t *table.Table, path string, log *slog.Logger) error {
	in, err := source.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	stats, err := t.Ingest(ctx, in, log)
	log.Info("ingested", "table", t.Name(), "input", path, "rows", stats.Rows-stats.Failed, "skipped", stats.Failed)
	return err
}

func printTable(t *table.Table, w io.Writer) error {
	enc := json.NewEncoder(w)
	var err error
	t.Ascend(0, func(row map[string]any) bool {
		err = enc.Encode(row)
		return err == nil
	})
	return err
}

func serve(ctx context.Context, catalog *table.Catalog, addr string, log *slog.Logger) error {
	s := &http.Server{
		Addr:    addr,
		Handler: server.Build(catalog, log),
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		s.Shutdown(context.Background())
	}()

	if err := s.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
