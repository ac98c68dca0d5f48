package ingest

import "testing"

func TestResolveFields(t *testing.T) {
	tests := []struct {
		name string
		row  RawRow
		want FieldMap
	}{
		{
			name: "split_debit_credit_columns",
			row: RawRow{
				"Txn Date":        "01/04/2024",
				"Narration":       "UPI/SWIGGY",
				"Withdrawal Amt.": "250.00",
				"Deposit Amt.":    "",
				"Closing Balance": "1000",
			},
			want: FieldMap{Date: "Txn Date", Description: "Narration", Withdrawal: "Withdrawal Amt.", Deposit: "Deposit Amt."},
		},
		{
			name: "single_amount_with_type",
			row: RawRow{
				"Date":        "2024-04-01",
				"Description": "Salary",
				"Amount":      "50000",
				"Type":        "CR",
				"Category":    "Income",
			},
			want: FieldMap{Date: "Date", Description: "Description", Amount: "Amount", Type: "Type", Category: "Category"},
		},
		{
			name: "exact_date_beats_substring",
			row: RawRow{
				"Value Date": "02/04/2024",
				"date":       "01/04/2024",
				"Amount":     "1",
			},
			want: FieldMap{Date: "date", Amount: "Amount"},
		},
		{
			name: "lexicographic_tiebreak",
			row: RawRow{
				"Value Date":       "02/04/2024",
				"Transaction Date": "01/04/2024",
				"Debit":            "5",
			},
			want: FieldMap{Date: "Transaction Date", Withdrawal: "Debit"},
		},
		{
			name: "credit_debit_both_present",
			row: RawRow{
				"Debit":  "",
				"Credit": "10",
			},
			want: FieldMap{Withdrawal: "Debit", Deposit: "Credit"},
		},
		{
			name: "nothing_recognized",
			row:  RawRow{"foo": 1, "bar": 2},
			want: FieldMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFields(tt.row)
			if got != tt.want {
				t.Errorf("ResolveFields() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveBatch(t *testing.T) {
	t.Run("union_of_keys", func(t *testing.T) {
		rows := []RawRow{
			{"Date": "01/04/2024", "Description": "opening"},
			{"Date": "02/04/2024", "Description": "coffee", "Withdrawal": "120"},
		}
		got := ResolveBatch(rows)
		if got.Withdrawal != "Withdrawal" {
			t.Errorf("expected withdrawal column from second row, got %+v", got)
		}
		if !got.HasAmount() || !got.HasSplitColumns() {
			t.Errorf("expected amount-bearing split columns, got %+v", got)
		}
	})

	t.Run("empty_batch", func(t *testing.T) {
		if got := ResolveBatch(nil); got != (FieldMap{}) {
			t.Errorf("expected empty field map, got %+v", got)
		}
	})
}
