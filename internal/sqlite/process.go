package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/repository"
)

// ProcessRepository implements archive.Repository for SQLite
type ProcessRepository struct {
	db *DB
}

// NewProcessRepository creates a new ProcessRepository
func NewProcessRepository(db *DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

// List returns every process in archive order
func (r *ProcessRepository) List(ctx context.Context) ([]archive.Process, error) {
	query := `
		SELECT id, title, summary, created_at
		FROM processes
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	procs := []archive.Process{}
	index := map[string]int{}
	for rows.Next() {
		var proc archive.Process
		if err := rows.Scan(&proc.ID, &proc.Title, &proc.Summary, &proc.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}
		proc.Rows = []table.Row{}
		index[proc.ID] = len(procs)
		procs = append(procs, proc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating process rows: %w", err)
	}
	// The pool holds a single connection, so the cursor must be closed
	// before the next query.
	rows.Close()

	if len(procs) == 0 {
		return procs, nil
	}

	rowQuery := `
		SELECT process_id, row_id, unit_task, potential_hazard, safety_measure, reflected_items
		FROM process_rows
		ORDER BY process_id, position ASC
	`
	tableRows, err := r.db.QueryContext(ctx, rowQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list process rows: %w", err)
	}
	defer tableRows.Close()

	for tableRows.Next() {
		var processID string
		var row table.Row
		if err := tableRows.Scan(
			&processID,
			&row.ID,
			&row.UnitTask,
			&row.PotentialHazard,
			&row.SafetyMeasure,
			&row.ReflectedItems,
		); err != nil {
			return nil, fmt.Errorf("failed to scan process row: %w", err)
		}
		if i, ok := index[processID]; ok {
			procs[i].Rows = append(procs[i].Rows, row)
		}
	}
	if err := tableRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process rows: %w", err)
	}

	return procs, nil
}

// Get retrieves a process and its rows by ID
func (r *ProcessRepository) Get(ctx context.Context, id string) (*archive.Process, error) {
	query := `
		SELECT id, title, summary, created_at
		FROM processes
		WHERE id = ?
	`

	var proc archive.Process
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proc.ID,
		&proc.Title,
		&proc.Summary,
		&proc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	proc.Rows, err = r.loadRows(ctx, id)
	if err != nil {
		return nil, err
	}
	return &proc, nil
}

// Count returns the number of archived processes
func (r *ProcessRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count processes: %w", err)
	}
	return n, nil
}

// Append stores a new process at the end of the archive
func (r *ProcessRepository) Append(ctx context.Context, proc *archive.Process) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM processes`,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to read next position: %w", err)
		}

		query := `
			INSERT INTO processes (id, position, title, summary, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			proc.ID,
			position,
			proc.Title,
			proc.Summary,
			proc.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("process %s already exists: %w", proc.ID, repository.ErrInvalidInput)
			}
			return fmt.Errorf("failed to create process: %w", err)
		}

		return insertRows(ctx, tx, proc.ID, proc.Rows)
	})
}

// Replace overwrites title, summary and rows of an existing process. Its
// position and created_at are left untouched.
func (r *ProcessRepository) Replace(ctx context.Context, proc *archive.Process) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE processes SET title = ?, summary = ? WHERE id = ?`,
			proc.Title, proc.Summary, proc.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update process: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 0 {
			return repository.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM process_rows WHERE process_id = ?`, proc.ID); err != nil {
			return fmt.Errorf("failed to clear process rows: %w", err)
		}
		return insertRows(ctx, tx, proc.ID, proc.Rows)
	})
}

// Delete removes a process and closes the gap in positions
func (r *ProcessRepository) Delete(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var position int
		err := tx.QueryRowContext(ctx, `SELECT position FROM processes WHERE id = ?`, id).Scan(&position)
		if err == sql.ErrNoRows {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get process position: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM processes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete process: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE processes SET position = position - 1 WHERE position > ?`, position,
		); err != nil {
			return fmt.Errorf("failed to compact positions: %w", err)
		}
		return nil
	})
}

// Swap exchanges the processes at positions i and j
func (r *ProcessRepository) Swap(ctx context.Context, i, j int) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		idAt := func(pos int) (string, error) {
			var id string
			err := tx.QueryRowContext(ctx, `SELECT id FROM processes WHERE position = ?`, pos).Scan(&id)
			if err == sql.ErrNoRows {
				return "", repository.ErrNotFound
			}
			if err != nil {
				return "", fmt.Errorf("failed to get process at %d: %w", pos, err)
			}
			return id, nil
		}

		first, err := idAt(i)
		if err != nil {
			return err
		}
		second, err := idAt(j)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE processes SET position = ? WHERE id = ?`, j, first); err != nil {
			return fmt.Errorf("failed to move process: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE processes SET position = ? WHERE id = ?`, i, second); err != nil {
			return fmt.Errorf("failed to move process: %w", err)
		}
		return nil
	})
}

func (r *ProcessRepository) loadRows(ctx context.Context, processID string) ([]table.Row, error) {
	query := `
		SELECT row_id, unit_task, potential_hazard, safety_measure, reflected_items
		FROM process_rows
		WHERE process_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to load process rows: %w", err)
	}
	defer rows.Close()

	out := []table.Row{}
	for rows.Next() {
		var row table.Row
		if err := rows.Scan(
			&row.ID,
			&row.UnitTask,
			&row.PotentialHazard,
			&row.SafetyMeasure,
			&row.ReflectedItems,
		); err != nil {
			return nil, fmt.Errorf("failed to scan process row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process rows: %w", err)
	}
	return out, nil
}

func (r *ProcessRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, processID string, rows []table.Row) error {
	query := `
		INSERT INTO process_rows (
			process_id, position, row_id,
			unit_task, potential_hazard, safety_measure, reflected_items
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, query,
			processID,
			i,
			row.ID,
			row.UnitTask,
			row.PotentialHazard,
			row.SafetyMeasure,
			row.ReflectedItems,
		); err != nil {
			return fmt.Errorf("failed to insert process row: %w", err)
		}
	}
	return nil
}
