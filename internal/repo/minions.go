package repo

import (
	"context"
	"database/sql"

	"lairkeep/internal/domain"
)

const minionCols = `id,name,skill_level,specialty,loyalty_score,salary_demand,base_id,scheme_id,COALESCE(mood,''),COALESCE(mood_updated_at,'')`

func scanMinion(scan func(dest ...any) error) (domain.Minion, error) {
	var m domain.Minion
	var baseID, schemeID sql.NullInt64
	err := scan(&m.ID, &m.Name, &m.SkillLevel, &m.Specialty, &m.LoyaltyScore, &m.SalaryDemand, &baseID, &schemeID, &m.Mood, &m.MoodUpdatedAt)
	if err != nil {
		return m, err
	}
	if baseID.Valid {
		m.BaseID = &baseID.Int64
	}
	if schemeID.Valid {
		m.SchemeID = &schemeID.Int64
	}
	return m, nil
}

func (r Repo) InsertMinion(ctx context.Context, tx *sql.Tx, m domain.Minion) (domain.Minion, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO minions(name,skill_level,specialty,loyalty_score,salary_demand,base_id,scheme_id,mood,mood_updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		m.Name, m.SkillLevel, m.Specialty, m.LoyaltyScore, m.SalaryDemand,
		nullableInt64Ptr(m.BaseID), nullableInt64Ptr(m.SchemeID), nullable(m.Mood), nullable(m.MoodUpdatedAt))
	if err != nil {
		return m, err
	}
	m.ID, err = res.LastInsertId()
	return m, err
}

func (r Repo) GetMinion(ctx context.Context, id int64) (domain.Minion, error) {
	return r.getMinion(ctx, nil, id)
}

// GetMinionTx reads inside a transaction so read-modify-write updates such as
// loyalty adjustments serialize at the write lock instead of losing one.
func (r Repo) GetMinionTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Minion, error) {
	return r.getMinion(ctx, tx, id)
}

func (r Repo) getMinion(ctx context.Context, tx *sql.Tx, id int64) (domain.Minion, error) {
	row := r.on(tx).QueryRowContext(ctx, `SELECT `+minionCols+` FROM minions WHERE id=?`, id)
	m, err := scanMinion(row.Scan)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

func (r Repo) UpdateMinion(ctx context.Context, tx *sql.Tx, m domain.Minion) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE minions SET name=?, skill_level=?, specialty=?, loyalty_score=?, salary_demand=?, base_id=?, scheme_id=?, mood=?, mood_updated_at=? WHERE id=?`,
		m.Name, m.SkillLevel, m.Specialty, m.LoyaltyScore, m.SalaryDemand,
		nullableInt64Ptr(m.BaseID), nullableInt64Ptr(m.SchemeID), nullable(m.Mood), nullable(m.MoodUpdatedAt), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMinion(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM minions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type MinionFilters struct {
	SchemeID   int64
	BaseID     int64
	Specialty  string
	LoyaltyMax int // exclusive upper bound; 0 means no loyalty filter
}

func (r Repo) ListMinions(ctx context.Context, f MinionFilters) ([]domain.Minion, error) {
	query := `SELECT ` + minionCols + ` FROM minions WHERE 1=1`
	var args []any
	if f.SchemeID > 0 {
		query += ` AND scheme_id=?`
		args = append(args, f.SchemeID)
	}
	if f.BaseID > 0 {
		query += ` AND base_id=?`
		args = append(args, f.BaseID)
	}
	if f.Specialty != "" {
		query += ` AND specialty=?`
		args = append(args, f.Specialty)
	}
	if f.LoyaltyMax > 0 {
		query += ` AND loyalty_score < ?`
		args = append(args, f.LoyaltyMax)
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Minion
	for rows.Next() {
		m, err := scanMinion(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r Repo) ListMinionsByScheme(ctx context.Context, schemeID int64) ([]domain.Minion, error) {
	return r.ListMinions(ctx, MinionFilters{SchemeID: schemeID})
}

func (r Repo) ListMinionsByBase(ctx context.Context, baseID int64) ([]domain.Minion, error) {
	return r.ListMinions(ctx, MinionFilters{BaseID: baseID})
}

func (r Repo) CountMinionsByBase(ctx context.Context, baseID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM minions WHERE base_id=?`, baseID).Scan(&n)
	return n, err
}
