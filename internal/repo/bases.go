package repo

import (
	"context"
	"database/sql"

	"lairkeep/internal/domain"
)

const baseCols = `id,name,location,capacity,security_level,monthly_upkeep,has_doomsday_device,compromised,last_inspection_at`

func scanBase(scan func(dest ...any) error) (domain.Base, error) {
	var b domain.Base
	var lastInspection sql.NullString
	err := scan(&b.ID, &b.Name, &b.Location, &b.Capacity, &b.SecurityLevel, &b.MonthlyUpkeep,
		&b.HasDoomsdayDevice, &b.Compromised, &lastInspection)
	if err != nil {
		return b, err
	}
	if lastInspection.Valid {
		b.LastInspectionAt = &lastInspection.String
	}
	return b, nil
}

func (r Repo) InsertBase(ctx context.Context, tx *sql.Tx, b domain.Base) (domain.Base, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO bases(name,location,capacity,security_level,monthly_upkeep,has_doomsday_device,compromised,last_inspection_at)
VALUES (?,?,?,?,?,?,?,?)`,
		b.Name, b.Location, b.Capacity, b.SecurityLevel, b.MonthlyUpkeep,
		b.HasDoomsdayDevice, b.Compromised, nullableStringPtr(b.LastInspectionAt))
	if err != nil {
		return b, err
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

func (r Repo) GetBase(ctx context.Context, id int64) (domain.Base, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+baseCols+` FROM bases WHERE id=?`, id)
	b, err := scanBase(row.Scan)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

func (r Repo) UpdateBase(ctx context.Context, tx *sql.Tx, b domain.Base) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE bases SET name=?, location=?, capacity=?, security_level=?, monthly_upkeep=?, has_doomsday_device=?, compromised=?, last_inspection_at=? WHERE id=?`,
		b.Name, b.Location, b.Capacity, b.SecurityLevel, b.MonthlyUpkeep,
		b.HasDoomsdayDevice, b.Compromised, nullableStringPtr(b.LastInspectionAt), b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteBase(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM bases WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type BaseFilters struct {
	Location    string
	Doomsday    bool // only bases housing a doomsday device
	Compromised bool // only bases whose cover is blown
}

func (r Repo) ListBases(ctx context.Context, f BaseFilters) ([]domain.Base, error) {
	query := `SELECT ` + baseCols + ` FROM bases WHERE 1=1`
	var args []any
	if f.Location != "" {
		query += ` AND location=?`
		args = append(args, f.Location)
	}
	if f.Doomsday {
		query += ` AND has_doomsday_device=1`
	}
	if f.Compromised {
		query += ` AND compromised=1`
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Base
	for rows.Next() {
		b, err := scanBase(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}
