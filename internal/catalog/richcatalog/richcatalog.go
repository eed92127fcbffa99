// Package richcatalog introspects a live Postgres database's schema into
// bulletdb's planner.Resolver contract: one query batch (CTEs) builds
// every table's column list, primary key, and foreign keys in a single
// round trip, cached in memory with checksum-based staleness detection and
// optional periodic auto-refresh.
package richcatalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// Options configures which schemas are introspected.
type Options struct {
	Schemas []string
}

// AutoRefresh configures a background polling loop that keeps the
// in-memory snapshot fresh without a caller driving Refresh itself.
type AutoRefresh struct {
	Interval time.Duration
}

// Column is one introspected column's shape.
type Column struct {
	Name    string
	Ordinal int
	PgType  string
	NotNull bool
}

// Table is one introspected table or view.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
	PK      []string
	FKs     []ForeignKey
}

type ForeignKey struct {
	Name       string
	Columns    []string
	RefSchema  string
	RefTable   string
	RefColumns []string
}

type snapshot struct {
	tables   map[string]*Table
	checksum string
}

// Catalog is a live-introspected planner.Resolver over a Postgres
// database. It also implements provenance-style lookups (Columns,
// PrimaryKeys) for the reactive live-query surface.
type Catalog struct {
	opt Options
	db  *sql.DB
	log *zap.Logger

	mu   sync.RWMutex
	snap snapshot
}

func New(db *sql.DB, opt Options, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{db: db, opt: opt, log: log, snap: snapshot{tables: map[string]*Table{}}}
}

// Columns returns a table's column names, for the reactive dependency
// tracker's lineage resolution.
func (c *Catalog) Columns(qualified string) ([]string, bool) {
	t, ok := c.lookupTable(qualified)
	if !ok {
		return nil, false
	}
	cols := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = col.Name
	}
	return cols, true
}

// PrimaryKeys returns a table's primary key column names.
func (c *Catalog) PrimaryKeys(qualified string) ([]string, bool) {
	t, ok := c.lookupTable(qualified)
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.PK...), true
}

func (c *Catalog) lookupTable(qualified string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.snap.tables[qualify(qualified)]
	return t, ok
}

// ResolveTable implements planner.Resolver against the introspected schema.
func (c *Catalog) ResolveTable(ref ast.ObjectReference) (*planner.TableReference, []bullet.StructField, error) {
	name := ref.Parts[len(ref.Parts)-1]
	schema := "public"
	if len(ref.Parts) > 1 {
		schema = ref.Parts[len(ref.Parts)-2]
	}

	t, ok := c.lookupTable(schema + "." + name)
	if !ok {
		return nil, nil, enginerr.Lookupf("unknown table: %s.%s", schema, name)
	}

	fields := make([]bullet.StructField, len(t.Columns))
	for i, col := range t.Columns {
		fields[i] = bullet.StructField{Name: col.Name, Type: pgTypeToBullet(col.PgType)}
	}
	return &planner.TableReference{Schema: schema, Table: name}, fields, nil
}

// ResolveTableFunction is not served by this catalog: table functions
// (read_parquet, read_postgres) are registered directly against a
// catalog.MemCatalog or composed resolver, not discovered from Postgres
// introspection.
func (c *Catalog) ResolveTableFunction(name string) (planner.TableFunctionBinder, error) {
	return nil, enginerr.NotImplementedf("table function resolution is not served by the Postgres catalog: %s", name)
}

// pgTypeToBullet maps a format_type() result to the column's logical
// bullet.DataType. Unrecognized types fall back to Utf8, matching how this
// system treats any value it can still move around as text even without
// kernel support for its native representation.
func pgTypeToBullet(pgType string) bullet.DataType {
	base := strings.SplitN(pgType, "(", 2)[0]
	switch strings.TrimSpace(base) {
	case "smallint", "int2":
		return bullet.Simple(bullet.KindInt16)
	case "integer", "int4":
		return bullet.Simple(bullet.KindInt32)
	case "bigint", "int8":
		return bullet.Simple(bullet.KindInt64)
	case "real", "float4":
		return bullet.Simple(bullet.KindFloat32)
	case "double precision", "float8":
		return bullet.Simple(bullet.KindFloat64)
	case "boolean", "bool":
		return bullet.Simple(bullet.KindBoolean)
	case "text", "character varying", "varchar", "character", "char", "uuid", "json", "jsonb":
		return bullet.Simple(bullet.KindUtf8)
	case "bytea":
		return bullet.Simple(bullet.KindBinary)
	case "date":
		return bullet.Simple(bullet.KindDate32)
	case "timestamp without time zone", "timestamp with time zone", "timestamp", "timestamptz":
		return bullet.Timestamp(bullet.UnitMicrosecond)
	case "numeric", "decimal":
		return bullet.Decimal(bullet.KindDecimal128, 38, 9)
	default:
		return bullet.Simple(bullet.KindUtf8)
	}
}

// Refresh re-introspects the database and swaps in a new snapshot if its
// checksum differs from what's cached.
func (c *Catalog) Refresh(ctx context.Context) error {
	newSnap, err := c.introspect(ctx)
	if err != nil {
		return enginerr.WrapIo(err, "introspect catalog")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if newSnap.checksum != c.snap.checksum {
		c.snap = newSnap
		c.log.Info("catalog refreshed", zap.String("checksum", newSnap.checksum), zap.Int("tables", len(newSnap.tables)))
	}
	return nil
}

// StartAutoRefresh runs Refresh on a ticker until the returned stop func is
// called.
func (c *Catalog) StartAutoRefresh(ctx context.Context, ar AutoRefresh) func() {
	ctx, cancel := context.WithCancel(ctx)
	if ar.Interval <= 0 {
		return cancel
	}

	go func() {
		t := time.NewTicker(ar.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := c.Refresh(ctx); err != nil {
					c.log.Warn("catalog auto-refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return cancel
}

const introspectQuery = `
WITH schemas AS (
  SELECT n.oid AS nspoid, n.nspname
  FROM pg_catalog.pg_namespace n
  WHERE n.nspname = ANY($1)
),
base_tables AS (
  SELECT c.oid AS relid, c.relname, s.nspname
  FROM pg_catalog.pg_class c
  JOIN schemas s ON s.nspoid = c.relnamespace
  WHERE c.relkind IN ('r', 'p', 'v', 'm')
),
cols AS (
  SELECT b.nspname, b.relname, a.attnum, a.attname,
         pg_catalog.format_type(a.atttypid, a.atttypmod) AS typ,
         a.attnotnull
  FROM base_tables b
  JOIN pg_catalog.pg_attribute a ON a.attrelid = b.relid AND a.attnum > 0 AND NOT a.attisdropped
),
pk_cols AS (
  SELECT c.nspname, c.relname, con.conname,
         (SELECT array_agg(a.attname ORDER BY k.ord)
            FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
            JOIN pg_catalog.pg_attribute a ON a.attrelid = c.relid AND a.attnum = k.attnum) AS cols
  FROM base_tables c
  JOIN pg_catalog.pg_constraint con ON con.conrelid = c.relid AND con.contype = 'p'
),
fks AS (
  SELECT sn.nspname AS src_schema, ct.relname AS src_table, con.conname,
         (SELECT array_agg(a.attname ORDER BY k.ord)
            FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
            JOIN pg_catalog.pg_attribute a ON a.attrelid = ct.oid AND a.attnum = k.attnum) AS src_cols,
         dn.nspname AS dst_schema, rt.relname AS dst_table,
         (SELECT array_agg(a.attname ORDER BY k.ord)
            FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
            JOIN pg_catalog.pg_attribute a ON a.attrelid = rt.oid AND a.attnum = k.attnum) AS dst_cols
  FROM pg_catalog.pg_constraint con
  JOIN pg_catalog.pg_class ct ON ct.oid = con.conrelid
  JOIN pg_catalog.pg_namespace sn ON sn.oid = ct.relnamespace
  JOIN pg_catalog.pg_class rt ON rt.oid = con.confrelid
  JOIN pg_catalog.pg_namespace dn ON dn.oid = rt.relnamespace
  WHERE con.contype = 'f'
)
SELECT 'COL' AS kind, nspname, relname, attnum, attname, typ, attnotnull,
       NULL::text, NULL::text[], NULL::text[], NULL::text, NULL::text
  FROM cols
UNION ALL
SELECT 'PK', nspname, relname, NULL, NULL, NULL, NULL, conname, cols, NULL, NULL, NULL
  FROM pk_cols
UNION ALL
SELECT 'FK', src_schema, src_table, NULL, NULL, NULL, NULL, conname, src_cols, dst_cols, dst_schema, dst_table
  FROM fks
ORDER BY 2, 3, 1, 4 NULLS LAST`

func (c *Catalog) introspect(ctx context.Context) (snapshot, error) {
	schemas := c.opt.Schemas
	if len(schemas) == 0 {
		schemas = []string{"public"}
	}

	rows, err := c.db.QueryContext(ctx, introspectQuery, pq.Array(schemas))
	if err != nil {
		return snapshot{}, err
	}
	defer rows.Close()

	tables := map[string]*Table{}
	for rows.Next() {
		var kind, nsp, rel string
		var attnum sql.NullInt64
		var attname, typ sql.NullString
		var notnull sql.NullBool
		var name sql.NullString
		var srcCols, dstCols pq.StringArray
		var dstSchema, dstTable sql.NullString

		if err := rows.Scan(&kind, &nsp, &rel, &attnum, &attname, &typ, &notnull,
			&name, &srcCols, &dstCols, &dstSchema, &dstTable); err != nil {
			return snapshot{}, err
		}

		key := nsp + "." + rel
		t, ok := tables[key]
		if !ok {
			t = &Table{Schema: nsp, Name: rel}
			tables[key] = t
		}

		switch kind {
		case "COL":
			t.Columns = append(t.Columns, Column{
				Name:    attname.String,
				Ordinal: int(attnum.Int64),
				PgType:  typ.String,
				NotNull: notnull.Bool,
			})
		case "PK":
			t.PK = []string(srcCols)
		case "FK":
			t.FKs = append(t.FKs, ForeignKey{
				Name:       name.String,
				Columns:    []string(srcCols),
				RefSchema:  dstSchema.String,
				RefTable:   dstTable.String,
				RefColumns: []string(dstCols),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return snapshot{}, err
	}

	for _, t := range tables {
		sort.Slice(t.Columns, func(i, j int) bool { return t.Columns[i].Ordinal < t.Columns[j].Ordinal })
	}

	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b, _ := json.Marshal(keys)
	for _, k := range keys {
		tb, _ := json.Marshal(tables[k])
		b = append(b, tb...)
	}
	hash := sha256.Sum256(b)

	return snapshot{tables: tables, checksum: hex.EncodeToString(hash[:])}, nil
}

func qualify(s string) string {
	if strings.Contains(s, ".") {
		return s
	}
	return "public." + s
}
