package repo

import (
	"context"
	"database/sql"

	"lairkeep/internal/domain"
)

const schemeCols = `id,name,COALESCE(description,''),budget,current_spending,required_skill_level,required_specialty,status,start_date,target_date,diabolical_rating,success_likelihood`

func scanScheme(scan func(dest ...any) error) (domain.Scheme, error) {
	var s domain.Scheme
	var startDate sql.NullString
	err := scan(&s.ID, &s.Name, &s.Description, &s.Budget, &s.CurrentSpending, &s.RequiredSkillLevel,
		&s.RequiredSpecialty, &s.Status, &startDate, &s.TargetDate, &s.DiabolicalRating, &s.SuccessLikelihood)
	if err != nil {
		return s, err
	}
	if startDate.Valid {
		s.StartDate = &startDate.String
	}
	return s, nil
}

func (r Repo) InsertScheme(ctx context.Context, tx *sql.Tx, s domain.Scheme) (domain.Scheme, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO schemes(name,description,budget,current_spending,required_skill_level,required_specialty,status,start_date,target_date,diabolical_rating,success_likelihood)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.Name, nullable(s.Description), s.Budget, s.CurrentSpending, s.RequiredSkillLevel,
		s.RequiredSpecialty, s.Status, nullableStringPtr(s.StartDate), s.TargetDate, s.DiabolicalRating, s.SuccessLikelihood)
	if err != nil {
		return s, err
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

func (r Repo) GetScheme(ctx context.Context, id int64) (domain.Scheme, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+schemeCols+` FROM schemes WHERE id=?`, id)
	s, err := scanScheme(row.Scan)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) UpdateScheme(ctx context.Context, tx *sql.Tx, s domain.Scheme) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE schemes SET name=?, description=?, budget=?, current_spending=?, required_skill_level=?, required_specialty=?, status=?, start_date=?, target_date=?, diabolical_rating=?, success_likelihood=? WHERE id=?`,
		s.Name, nullable(s.Description), s.Budget, s.CurrentSpending, s.RequiredSkillLevel,
		s.RequiredSpecialty, s.Status, nullableStringPtr(s.StartDate), s.TargetDate, s.DiabolicalRating, s.SuccessLikelihood, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteScheme(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM schemes WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListSchemes(ctx context.Context, status string) ([]domain.Scheme, error) {
	query := `SELECT ` + schemeCols + ` FROM schemes`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Scheme
	for rows.Next() {
		s, err := scanScheme(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// ListOverBudgetSchemes returns schemes whose spending strictly exceeds budget.
func (r Repo) ListOverBudgetSchemes(ctx context.Context) ([]domain.Scheme, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+schemeCols+` FROM schemes WHERE current_spending > budget ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Scheme
	for rows.Next() {
		s, err := scanScheme(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
