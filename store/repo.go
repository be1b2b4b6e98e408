package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"narralign/b3"
	"narralign/segment"
)

// narrationKey is the fixed key the single narration blob is stored
// under. One narration per installation; a new upload overwrites it.
const narrationKey = "narration"

// ErrNotFound is returned when no narration blob or no persisted
// alignment exists yet.
var ErrNotFound = errors.New("not found")

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) SQLiteRepo {
	return SQLiteRepo{db}
}

// SaveNarration persists the raw narration blob, replacing any previous
// one. The blake3 hash travels with it for identity checks.
func (r SQLiteRepo) SaveNarration(ctx context.Context, name string, data []byte) error {
	hash, err := b3.HashBytes(data)
	if err != nil {
		return fmt.Errorf("saving narration: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		`insert into narrations (key, name, blake3_hash, data) values ($1, $2, $3, $4)
		 on conflict (key) do update set name = $2, blake3_hash = $3, data = $4`,
		narrationKey,
		name,
		hash,
		data,
	)
	if err != nil {
		return fmt.Errorf("persisting narration into sqlite: %w", err)
	}
	return nil
}

// LoadNarration fetches the stored blob and the hash it was saved with,
// or ErrNotFound.
func (r SQLiteRepo) LoadNarration(ctx context.Context) (string, string, []byte, error) {
	var (
		name string
		hash string
		data []byte
	)
	err := r.db.
		QueryRowContext(ctx, "select name, blake3_hash, data from narrations where key = $1", narrationKey).
		Scan(&name, &hash, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil, ErrNotFound
	}
	if err != nil {
		return "", "", nil, fmt.Errorf("loading narration: %w", err)
	}
	return name, hash, data, nil
}

func (r SQLiteRepo) DeleteNarration(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "delete from narrations where key = $1", narrationKey)
	if err != nil {
		return fmt.Errorf("deleting narration: %w", err)
	}
	return nil
}

// SaveAlignment replaces the persisted segment document with the given
// store, as one transaction.
func (r SQLiteRepo) SaveAlignment(ctx context.Context, s segment.Store) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving alignment: begin trx: %w", err)
	}

	err = r.replaceSegments(ctx, tx, s)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback save alignment: %w", rbErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("saving alignment: commiting: %w", err)
	}
	return nil
}

func (r SQLiteRepo) replaceSegments(ctx context.Context, tx *sql.Tx, s segment.Store) error {
	_, err := tx.ExecContext(ctx, "delete from alignment_segments")
	if err != nil {
		return fmt.Errorf("clearing previous alignment: %w", err)
	}
	if len(s) == 0 {
		return nil
	}

	var insertQueryBuilder strings.Builder
	_, err = insertQueryBuilder.WriteString(`insert into alignment_segments (
		idx,
		word,
		start_ms,
		end_ms) values `)
	if err != nil {
		return fmt.Errorf("inserting segments: building insert query: %w", err)
	}
	insertArgs := make([]any, 4*len(s))
	for n, seg := range s {
		prefix := ", "
		if n == 0 {
			prefix = ""
		}
		suffix := ""
		if n == len(s)-1 {
			suffix = ";"
		}
		b := n * 4
		_, err = insertQueryBuilder.WriteString(fmt.Sprintf(`%s(
			$%d, $%d, $%d, $%d
		)%s`, prefix, b+1, b+2, b+3, b+4, suffix))
		if err != nil {
			return fmt.Errorf("inserting segments: building insert query: %w", err)
		}

		insertArgs[b] = n
		insertArgs[b+1] = seg.Word
		insertArgs[b+2] = msFromSeconds(seg.Start)
		insertArgs[b+3] = msFromSeconds(seg.End)
	}

	_, err = tx.ExecContext(ctx, insertQueryBuilder.String(), insertArgs...)
	if err != nil {
		return fmt.Errorf("inserting segments: %w", err)
	}
	return nil
}

// LoadAlignment reads the persisted document back as a store, ordered by
// index. ErrNotFound when nothing has been persisted.
func (r SQLiteRepo) LoadAlignment(ctx context.Context) (segment.Store, error) {
	rows, err := r.db.QueryContext(ctx, "select word, start_ms, end_ms from alignment_segments order by idx")
	if err != nil {
		return nil, fmt.Errorf("loading alignment: %w", err)
	}
	defer rows.Close()

	var out segment.Store
	for rows.Next() {
		var (
			word           string
			startMs, endMs int64
		)
		if err := rows.Scan(&word, &startMs, &endMs); err != nil {
			return nil, fmt.Errorf("loading alignment: scanning row: %w", err)
		}
		out = append(out, segment.Segment{
			Word:  word,
			Start: secondsFromMs(startMs),
			End:   secondsFromMs(endMs),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading alignment: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func msFromSeconds(sec float64) int64 {
	return decimal.NewFromFloat(sec).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

func secondsFromMs(ms int64) float64 {
	return decimal.NewFromInt(ms).Div(decimal.NewFromInt(1000)).InexactFloat64()
}
