package main

import "github.com/reoring/eachrow/internal/logging"

type Config struct {
	Schema     string         `usage:"YAML file with table definitions"`
	Table      string         `usage:"table to ingest into; optional when the schema file defines one table"`
	Input      string         `usage:"JSONEachRow file to ingest, '-' for stdin; .gz and .zst are detected"`
	Print      bool           `usage:"print the ingested table as JSONEachRow in ORDER BY order"`
	HttpAddr   string         `usage:"serve the HTTP API on this address after ingesting"`
	Language   string         `usage:"error message language: en or ja"`
	Version    bool           `usage:"show version and exit"`
	ShowConfig bool           `usage:"print config"`
	Log        logging.Config `usage:"logging"`
}

func Default() Config {
	return Config{
		Language: "en",
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}
