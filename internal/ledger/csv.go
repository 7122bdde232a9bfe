package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the CSV header for statement exports.
const Header = "transaction_id,from_id,to_id,amount,kind,timestamp"

const (
	numFields    = 6
	colID        = 0
	colFrom      = 1
	colTo        = 2
	colAmount    = 3
	colKind      = 4
	colTimestamp = 5
)

// ReadTransactions reads a statement CSV. Any malformed row fails the whole read.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// WriteTransactions writes a statement CSV including the header.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. External accounts are
// written as empty cells.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(t.ID, 10)
	if t.FromAccount != model.ExternalAccount {
		row[colFrom] = strconv.FormatInt(t.FromAccount, 10)
	}
	if t.ToAccount != model.ExternalAccount {
		row[colTo] = strconv.FormatInt(t.ToAccount, 10)
	}
	row[colAmount] = t.Amount.StringFixed(model.AmountPlaces)
	row[colKind] = string(t.Kind)
	row[colTimestamp] = t.Timestamp.Format(time.RFC3339)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction. Empty id and
// timestamp cells leave the zero value, for rows not yet in the ledger.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var id int64
	if record[colID] != "" {
		var err error
		if id, err = strconv.ParseInt(record[colID], 10, 64); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing transaction_id %q: %w", record[colID], err)
		}
	}

	from, err := parseAccountCell(record[colFrom])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing from_id %q: %w", record[colFrom], err)
	}

	to, err := parseAccountCell(record[colTo])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing to_id %q: %w", record[colTo], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	if amount.IsNegative() {
		return model.Transaction{}, fmt.Errorf("amount %s is negative", amount)
	}

	var ts time.Time
	if record[colTimestamp] != "" {
		if ts, err = time.Parse(time.RFC3339, record[colTimestamp]); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
		}
	}

	return model.Transaction{
		ID:          id,
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Kind:        model.TransactionKind(record[colKind]),
		Timestamp:   ts,
	}, nil
}

func parseAccountCell(s string) (int64, error) {
	if s == "" {
		return model.ExternalAccount, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
