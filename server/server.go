// Package server exposes a table catalog over HTTP:
//
//	GET  /v1/tables                      table names
//	GET  /v1/tables/{table}              columns and row count
//	POST /v1/tables/{table}:insert       JSONEachRow body, gzip/zstd Content-Encoding accepted
//	GET  /v1/tables/{table}:rows         rows in ORDER BY order; offset and limit query parameters
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fulldump/box"
	"github.com/goccy/go-json"

	"github.com/reoring/eachrow/source"
	"github.com/reoring/eachrow/table"
)

const defaultLimit = 100

type contextKey int

const (
	catalogKey contextKey = iota
	loggerKey
)

// Build returns the API handler for c.
func Build(c *table.Catalog, log *slog.Logger) *box.B {
	if log == nil {
		log = slog.Default()
	}
	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.Resource("/tables").
		WithActions(
			box.Get(listTables),
		)
	v1.Resource("/tables/{table}").
		WithActions(
			box.Get(getTable),
			box.ActionPost(insert).WithName("insert"),
			box.Action(rows).WithName("rows"),
		)

	b.WithInterceptors(
		AccessLog(log),
		box.RecoverFromPanic,
		PrettyErrorInterceptor,
		inject(c, log),
	)
	return b
}

func inject(c *table.Catalog, log *slog.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			ctx = context.WithValue(ctx, catalogKey, c)
			ctx = context.WithValue(ctx, loggerKey, log)
			next(ctx)
		}
	}
}

func getCatalog(ctx context.Context) *table.Catalog { return ctx.Value(catalogKey).(*table.Catalog) }

func getLogger(ctx context.Context) *slog.Logger { return ctx.Value(loggerKey).(*slog.Logger) }

func getTableParam(ctx context.Context) (*table.Table, error) {
	return getCatalog(ctx).Get(box.GetUrlParameter(ctx, "table"))
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type columnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []columnInfo `json:"columns"`
}

func listTables(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, getCatalog(ctx).Names())
}

func getTable(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	t, err := getTableParam(ctx)
	if err != nil {
		return err
	}
	s := t.Schema()
	info := tableInfo{Name: t.Name(), Rows: t.Rows(), Columns: make([]columnInfo, s.Len())}
	for i := range s.Len() {
		d := s.Def(i)
		info.Columns[i] = columnInfo{Name: d.Name, Type: d.Type.Name()}
	}
	return writeJSON(w, http.StatusOK, info)
}

type insertResult struct {
	Inserted int64 `json:"inserted"`
	Skipped  int64 `json:"skipped"`
}

// insert ingests the body. Blocks decoded before a fatal row error stay in
// the table.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	t, err := getTableParam(ctx)
	if err != nil {
		return err
	}
	enc, err := source.ParseEncoding(r.Header.Get("Content-Encoding"))
	if err != nil {
		return badRequest(err)
	}
	body, err := source.Decode(r.Body, enc)
	if err != nil {
		return badRequest(err)
	}
	defer body.Close()

	stats, err := t.Ingest(ctx, body, getLogger(ctx))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, insertResult{Inserted: stats.Rows - stats.Failed, Skipped: stats.Failed})
}

func rows(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	t, err := getTableParam(ctx)
	if err != nil {
		return err
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, t.Scan(offset, limit))
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(errors.New("query parameter " + key + " must be a non-negative integer"))
	}
	return n, nil
}

// AccessLog logs every request with its duration.
func AccessLog(log *slog.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				log.Info("request", "method", r.Method, "url", r.URL.String(), "elapsed", time.Since(now))
			}()
			next(ctx)
		}
	}
}
