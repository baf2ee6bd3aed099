package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Schema revisions for the workspace database. Each sql/NNNN_label.sql file
// is one revision; applied revisions are journaled in schema_migrations with
// the time they landed, so a workspace carries its own upgrade history.

//go:embed sql/*.sql
var schemaFS embed.FS

type revision struct {
	version int
	label   string
	up      string
}

func loadRevisions() ([]revision, error) {
	entries, err := fs.ReadDir(schemaFS, "sql")
	if err != nil {
		return nil, err
	}
	revs := make([]revision, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("sql/" + entry.Name())
		if err != nil {
			return nil, err
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return nil, fmt.Errorf("revision %s: name must start with a version number: %w", entry.Name(), err)
		}
		label := strings.TrimSuffix(entry.Name(), ".sql")
		if i := strings.IndexByte(label, '_'); i >= 0 {
			label = label[i+1:]
		}
		revs = append(revs, revision{version: version, label: label, up: string(data)})
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].version < revs[j].version })
	return revs, nil
}

// Migrate brings the database up to the latest schema revision. Pending
// revisions apply in one transaction, so a failed upgrade leaves the
// previous schema intact.
func Migrate(db *sql.DB) error {
	revs, err := loadRevisions()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations(
		version    INTEGER PRIMARY KEY,
		label      TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	for _, rev := range revs {
		if int64(rev.version) <= current.Int64 {
			continue
		}
		if _, err := tx.Exec(rev.up); err != nil {
			return fmt.Errorf("revision %d (%s): %w", rev.version, rev.label, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version,label,applied_at) VALUES (?,?,?)`,
			rev.version, rev.label, appliedAt); err != nil {
			return fmt.Errorf("journal revision %d: %w", rev.version, err)
		}
	}
	return tx.Commit()
}
