package model

import (
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// FactColumns is the fixed Raw Financials column order
var FactColumns = []string{
	"start", "end", "val", "accn", "fy", "fp", "form", "filed", "frame",
	"units", "account_id", "cik", "entity_name",
}

// AttributeColumns is the fixed Account Attributes column order
var AttributeColumns = []string{"label", "description", "account_id", "cik", "entity_name"}

// ViewColumns is the column order of the joined query view and the CSV export
var ViewColumns = []string{
	"cik", "entity_name", "start", "end", "fy", "fp",
	"account_id", "account", "units", "val", "form",
}

// FactRow is one filed observation of one concept
type FactRow struct {
	Start      sql.NullString `db:"start"`
	End        sql.NullString `db:"end"`
	Val        sql.NullString `db:"val"` // literal text from the filing, cast at query time
	Accn       sql.NullString `db:"accn"`
	FY         sql.NullInt64  `db:"fy"`
	FP         sql.NullString `db:"fp"`
	Form       sql.NullString `db:"form"`
	Filed      sql.NullString `db:"filed"`
	Frame      sql.NullString `db:"frame"`
	Units      string         `db:"units"`
	AccountID  string         `db:"account_id"`
	CIK        int64          `db:"cik"`
	EntityName string         `db:"entity_name"`
}

// Values returns the row in FactColumns order
func (r FactRow) Values() []any {
	return []any{
		r.Start, r.End, r.Val, r.Accn, r.FY, r.FP, r.Form, r.Filed, r.Frame,
		r.Units, r.AccountID, r.CIK, r.EntityName,
	}
}

// AttributeRow carries the descriptive metadata of a concept
type AttributeRow struct {
	Label       sql.NullString `db:"label"`
	Description sql.NullString `db:"description"`
	AccountID   string         `db:"account_id"`
	CIK         int64          `db:"cik"`
	EntityName  string         `db:"entity_name"`
}

// Values returns the row in AttributeColumns order
func (r AttributeRow) Values() []any {
	return []any{r.Label, r.Description, r.AccountID, r.CIK, r.EntityName}
}

// ViewRow is one row of the joined, sorted financials view
type ViewRow struct {
	CIK        int64               `db:"cik"`
	EntityName string              `db:"entity_name"`
	Start      sql.NullString      `db:"start"`
	End        sql.NullString      `db:"end"`
	FY         sql.NullInt64       `db:"fy"`
	FP         sql.NullString      `db:"fp"`
	AccountID  string              `db:"account_id"`
	Account    sql.NullString      `db:"account"`
	Units      string              `db:"units"`
	Val        decimal.NullDecimal `db:"val"`
	Form       sql.NullString      `db:"form"`
}

// Record renders the row in ViewColumns order; NULL becomes the empty string.
func (r ViewRow) Record() []string {
	fy := ""
	if r.FY.Valid {
		fy = strconv.FormatInt(r.FY.Int64, 10)
	}
	val := ""
	if r.Val.Valid {
		val = r.Val.Decimal.String()
	}
	return []string{
		strconv.FormatInt(r.CIK, 10),
		r.EntityName,
		r.Start.String,
		r.End.String,
		fy,
		r.FP.String,
		r.AccountID,
		r.Account.String,
		r.Units,
		val,
		r.Form.String,
	}
}

type viewRowJSON struct {
	CIK        int64            `json:"cik"`
	EntityName string           `json:"entity_name"`
	Start      *string          `json:"start"`
	End        *string          `json:"end"`
	FY         *int64           `json:"fy"`
	FP         *string          `json:"fp"`
	AccountID  string           `json:"account_id"`
	Account    *string          `json:"account"`
	Units      string           `json:"units"`
	Val        *decimal.Decimal `json:"val"`
	Form       *string          `json:"form"`
}

// MarshalJSON emits NULL columns as JSON null
func (r ViewRow) MarshalJSON() ([]byte, error) {
	out := viewRowJSON{
		CIK:        r.CIK,
		EntityName: r.EntityName,
		Start:      nullString(r.Start),
		End:        nullString(r.End),
		FP:         nullString(r.FP),
		AccountID:  r.AccountID,
		Account:    nullString(r.Account),
		Units:      r.Units,
		Form:       nullString(r.Form),
	}
	if r.FY.Valid {
		fy := r.FY.Int64
		out.FY = &fy
	}
	if r.Val.Valid {
		v := r.Val.Decimal
		out.Val = &v
	}
	return json.Marshal(out)
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// Ticker is one entry of the SEC ticker reference list
type Ticker struct {
	Symbol string `json:"ticker"`
	CIK    string `json:"cik"` // zero-padded to 10 digits
}
