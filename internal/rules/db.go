package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	_createRules = `CREATE TABLE IF NOT EXISTS alert_rules (
								id               BIGSERIAL PRIMARY KEY,
								name             TEXT NOT NULL DEFAULT '',
								applied_to       TEXT[] NOT NULL DEFAULT '{}',
								scope            TEXT NOT NULL DEFAULT '',
								common_in        TEXT[] NOT NULL DEFAULT '{}',
								direction        TEXT NOT NULL DEFAULT '',
								pl_comparator    TEXT NOT NULL DEFAULT '',
								pl_from          DOUBLE PRECISION NOT NULL DEFAULT 0,
								pl_to            DOUBLE PRECISION NOT NULL DEFAULT 0,
								investment_level TEXT NOT NULL DEFAULT '',
								inv_comparator   TEXT NOT NULL DEFAULT '',
								inv_from         DOUBLE PRECISION NOT NULL DEFAULT 0,
								inv_to           DOUBLE PRECISION NOT NULL DEFAULT 0,
								message          TEXT NOT NULL DEFAULT ''
							);`
	_ruleColumns = `id, name, applied_to, scope, common_in, direction, pl_comparator, pl_from, pl_to,
							investment_level, inv_comparator, inv_from, inv_to, message`
	_queryRules  = "SELECT " + _ruleColumns + " FROM alert_rules ORDER BY id"
	_queryRule   = "SELECT " + _ruleColumns + " FROM alert_rules WHERE id = $1"
	_insertRule  = `INSERT INTO alert_rules (
								name, applied_to, scope, common_in, direction, pl_comparator, pl_from, pl_to,
								investment_level, inv_comparator, inv_from, inv_to, message
							) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
							RETURNING id`
	_updateRule = `UPDATE alert_rules SET
								name = $2,
								applied_to = $3,
								scope = $4,
								common_in = $5,
								direction = $6,
								pl_comparator = $7,
								pl_from = $8,
								pl_to = $9,
								investment_level = $10,
								inv_comparator = $11,
								inv_from = $12,
								inv_to = $13,
								message = $14
							WHERE id = $1`
	_deleteRule = "DELETE FROM alert_rules WHERE id = $1"
	_resetRules = "TRUNCATE alert_rules RESTART IDENTITY"
)

type ruleRow struct {
	ID              int64          `db:"id"`
	Name            string         `db:"name"`
	AppliedTo       pq.StringArray `db:"applied_to"`
	Scope           string         `db:"scope"`
	CommonIn        pq.StringArray `db:"common_in"`
	Direction       string         `db:"direction"`
	PLComparator    string         `db:"pl_comparator"`
	PLFrom          float64        `db:"pl_from"`
	PLTo            float64        `db:"pl_to"`
	InvestmentLevel string         `db:"investment_level"`
	InvComparator   string         `db:"inv_comparator"`
	InvFrom         float64        `db:"inv_from"`
	InvTo           float64        `db:"inv_to"`
	Message         string         `db:"message"`
}

func toRow(r model.Rule) ruleRow {
	row := ruleRow{
		ID:              r.ID,
		Name:            r.Name,
		AppliedTo:       pq.StringArray(r.AppliedTo),
		Scope:           string(r.Scope),
		CommonIn:        pq.StringArray(r.CommonIn),
		Direction:       string(r.Direction),
		PLComparator:    string(r.PLComparator),
		PLFrom:          r.PLFrom,
		PLTo:            r.PLTo,
		InvestmentLevel: string(r.InvestmentLevel),
		InvComparator:   string(r.InvComparator),
		InvFrom:         r.InvFrom,
		InvTo:           r.InvTo,
		Message:         r.Message,
	}
	if row.AppliedTo == nil {
		row.AppliedTo = pq.StringArray{}
	}
	if row.CommonIn == nil {
		row.CommonIn = pq.StringArray{}
	}
	return row
}

func (row ruleRow) toModel() model.Rule {
	r := model.Rule{
		ID:              row.ID,
		Name:            row.Name,
		Scope:           model.Scope(row.Scope),
		Direction:       model.Direction(row.Direction),
		PLComparator:    model.Comparator(row.PLComparator),
		PLFrom:          row.PLFrom,
		PLTo:            row.PLTo,
		InvestmentLevel: model.InvestmentLevel(row.InvestmentLevel),
		InvComparator:   model.Comparator(row.InvComparator),
		InvFrom:         row.InvFrom,
		InvTo:           row.InvTo,
		Message:         row.Message,
	}
	if len(row.AppliedTo) > 0 {
		r.AppliedTo = []string(row.AppliedTo)
	}
	if len(row.CommonIn) > 0 {
		r.CommonIn = []string(row.CommonIn)
	}
	return r
}

// PostgresStore persists rules in the alert_rules table. Ids come from a
// BIGSERIAL, so they only grow until Reset.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Init creates the table if needed.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, _createRules); err != nil {
		return fmt.Errorf("%w: can't create alert_rules", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Rule, error) {
	var rows []ruleRow
	if err := s.db.SelectContext(ctx, &rows, _queryRules); err != nil {
		return nil, fmt.Errorf("%w: can't query rules", err)
	}

	out := make([]model.Rule, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (model.Rule, error) {
	var row ruleRow
	if err := s.db.GetContext(ctx, &row, _queryRule, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Rule{}, NotFoundError
		}
		return model.Rule{}, fmt.Errorf("%w: can't query rule", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) Add(ctx context.Context, r model.Rule) (model.Rule, error) {
	row := toRow(r)
	if err := s.db.QueryRowxContext(ctx, _insertRule,
		row.Name,
		row.AppliedTo,
		row.Scope,
		row.CommonIn,
		row.Direction,
		row.PLComparator,
		row.PLFrom,
		row.PLTo,
		row.InvestmentLevel,
		row.InvComparator,
		row.InvFrom,
		row.InvTo,
		row.Message,
	).Scan(&row.ID); err != nil {
		return model.Rule{}, fmt.Errorf("%w: can't insert rule", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) Save(ctx context.Context, r model.Rule) error {
	row := toRow(r)
	res, err := s.db.ExecContext(ctx, _updateRule,
		row.ID,
		row.Name,
		row.AppliedTo,
		row.Scope,
		row.CommonIn,
		row.Direction,
		row.PLComparator,
		row.PLFrom,
		row.PLTo,
		row.InvestmentLevel,
		row.InvComparator,
		row.InvFrom,
		row.InvTo,
		row.Message,
	)
	if err != nil {
		return fmt.Errorf("%w: can't update rule", err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, _deleteRule, id)
	if err != nil {
		return fmt.Errorf("%w: can't delete rule", err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, _resetRules); err != nil {
		return fmt.Errorf("%w: can't reset rules", err)
	}
	return nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't get affected rows", err)
	}
	if n == 0 {
		return NotFoundError
	}
	return nil
}
