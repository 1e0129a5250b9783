// Package storage persists simulation runs.
//
// Each run lives in <base>/<id>/ as metadata.json and monitors.csv.
// A SQLite index at <base>/runs.db lists runs without opening every
// directory. Run ids are random UUIDs.
package storage
