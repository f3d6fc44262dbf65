package repo

import (
	"context"
	"database/sql"

	"lairkeep/internal/domain"
)

const equipmentCols = `id,name,category,condition,purchase_price,maintenance_cost,scheme_id,base_id,requires_specialist,last_maintenance_at`

func scanEquipment(scan func(dest ...any) error) (domain.Equipment, error) {
	var eq domain.Equipment
	var schemeID, baseID sql.NullInt64
	var lastMaint sql.NullString
	err := scan(&eq.ID, &eq.Name, &eq.Category, &eq.Condition, &eq.PurchasePrice, &eq.MaintenanceCost,
		&schemeID, &baseID, &eq.RequiresSpecialist, &lastMaint)
	if err != nil {
		return eq, err
	}
	if schemeID.Valid {
		eq.SchemeID = &schemeID.Int64
	}
	if baseID.Valid {
		eq.BaseID = &baseID.Int64
	}
	if lastMaint.Valid {
		eq.LastMaintenanceAt = &lastMaint.String
	}
	return eq, nil
}

func (r Repo) InsertEquipment(ctx context.Context, tx *sql.Tx, eq domain.Equipment) (domain.Equipment, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO equipment(name,category,condition,purchase_price,maintenance_cost,scheme_id,base_id,requires_specialist,last_maintenance_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		eq.Name, eq.Category, eq.Condition, eq.PurchasePrice, eq.MaintenanceCost,
		nullableInt64Ptr(eq.SchemeID), nullableInt64Ptr(eq.BaseID), eq.RequiresSpecialist, nullableStringPtr(eq.LastMaintenanceAt))
	if err != nil {
		return eq, err
	}
	eq.ID, err = res.LastInsertId()
	return eq, err
}

func (r Repo) GetEquipment(ctx context.Context, id int64) (domain.Equipment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE id=?`, id)
	eq, err := scanEquipment(row.Scan)
	if err == sql.ErrNoRows {
		return eq, ErrNotFound
	}
	return eq, err
}

func (r Repo) UpdateEquipment(ctx context.Context, tx *sql.Tx, eq domain.Equipment) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE equipment SET name=?, category=?, condition=?, purchase_price=?, maintenance_cost=?, scheme_id=?, base_id=?, requires_specialist=?, last_maintenance_at=? WHERE id=?`,
		eq.Name, eq.Category, eq.Condition, eq.PurchasePrice, eq.MaintenanceCost,
		nullableInt64Ptr(eq.SchemeID), nullableInt64Ptr(eq.BaseID), eq.RequiresSpecialist, nullableStringPtr(eq.LastMaintenanceAt), eq.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteEquipment(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM equipment WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type EquipmentFilters struct {
	SchemeID     int64
	BaseID       int64
	Category     string
	ConditionMin int // inclusive lower bound; -1 means no condition filter
	ConditionMax int // exclusive upper bound; 0 means no condition filter
}

func (r Repo) ListEquipment(ctx context.Context, f EquipmentFilters) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentCols + ` FROM equipment WHERE 1=1`
	var args []any
	if f.SchemeID > 0 {
		query += ` AND scheme_id=?`
		args = append(args, f.SchemeID)
	}
	if f.BaseID > 0 {
		query += ` AND base_id=?`
		args = append(args, f.BaseID)
	}
	if f.Category != "" {
		query += ` AND category=?`
		args = append(args, f.Category)
	}
	if f.ConditionMin > 0 {
		query += ` AND condition >= ?`
		args = append(args, f.ConditionMin)
	}
	if f.ConditionMax > 0 {
		query += ` AND condition < ?`
		args = append(args, f.ConditionMax)
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, eq)
	}
	return res, rows.Err()
}

func (r Repo) ListEquipmentByScheme(ctx context.Context, schemeID int64) ([]domain.Equipment, error) {
	return r.ListEquipment(ctx, EquipmentFilters{SchemeID: schemeID})
}

func (r Repo) ListEquipmentByBase(ctx context.Context, baseID int64) ([]domain.Equipment, error) {
	return r.ListEquipment(ctx, EquipmentFilters{BaseID: baseID})
}
