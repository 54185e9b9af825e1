package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/model"
)

var factColumnTypes = map[string]string{
	"fy":  "BIGINT",
	"cik": "BIGINT",
}

var attributeColumnTypes = map[string]string{
	"cik": "BIGINT",
}

// ReplaceFinancials drops and recreates the user's Raw Financials table and
// loads rows, all in one transaction. An empty rows slice leaves an empty table.
func (s *Store) ReplaceFinancials(ctx context.Context, userID string, rows []model.FactRow) error {
	if err := model.ValidateUserID(userID); err != nil {
		return err
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	return s.replaceTable(ctx, model.FinancialsTable(userID), model.FactColumns, factColumnTypes, values)
}

// ReplaceAttributes drops and recreates the user's Account Attributes table
func (s *Store) ReplaceAttributes(ctx context.Context, userID string, rows []model.AttributeRow) error {
	if err := model.ValidateUserID(userID); err != nil {
		return err
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	return s.replaceTable(ctx, model.AttributesTable(userID), model.AttributeColumns, attributeColumnTypes, values)
}

func (s *Store) replaceTable(ctx context.Context, table string, columns []string, types map[string]string, rows [][]any) error {
	quoted := make([]string, len(columns))
	defs := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		typ := types[c]
		if typ == "" {
			typ = "TEXT"
		}
		defs[i] = quoted[i] + " " + typ
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
		if len(rows) == 0 {
			return nil
		}

		insert := tx.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(table), strings.Join(quoted, ", "), placeholders))
		stmt, err := tx.PreparexContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", table, err)
		}
		defer func() { _ = stmt.Close() }()

		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", table, i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("table replaced", zap.String("table", table), zap.Int("rows", len(rows)))
	return nil
}

// TableExists reports whether table is present in the current schema
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(s.dialect.tableQuery), table); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// QueryView joins the user's financials with their labels, sorted by
// account, end, start, fy, fp with NULLs first. labelledOnly drops rows whose
// concept has no label.
func (s *Store) QueryView(ctx context.Context, userID string, labelledOnly bool) ([]model.ViewRow, error) {
	if err := model.ValidateUserID(userID); err != nil {
		return nil, err
	}
	for _, table := range []string{model.FinancialsTable(userID), model.AttributesTable(userID)} {
		ok, err := s.TableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.ErrNoDataYet
		}
	}

	rows := []model.ViewRow{}
	if err := s.db.SelectContext(ctx, &rows, s.viewQuery(userID, labelledOnly)); err != nil {
		return nil, fmt.Errorf("query view: %w", err)
	}
	return rows, nil
}

func (s *Store) viewQuery(userID string, labelledOnly bool) string {
	nf := s.dialect.nullsFirst
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT RF."cik" AS "cik", RF."entity_name" AS "entity_name", RF."start" AS "start", RF."end" AS "end", `+
		`RF."fy" AS "fy", RF."fp" AS "fp", RF."account_id" AS "account_id", AA."label" AS "account", RF."units" AS "units", `+
		`CAST(RF."val" AS %s) AS "val", RF."form" AS "form" `, s.dialect.realType)
	fmt.Fprintf(&b, `FROM %s AS RF LEFT JOIN %s AS AA ON RF."account_id" = AA."account_id"`,
		quoteIdent(model.FinancialsTable(userID)), quoteIdent(model.AttributesTable(userID)))
	if labelledOnly {
		b.WriteString(` WHERE AA."label" IS NOT NULL`)
	}
	fmt.Fprintf(&b, ` ORDER BY "account"%s, RF."end"%s, RF."start"%s, RF."fy"%s, RF."fp"%s`, nf, nf, nf, nf, nf)
	return b.String()
}
