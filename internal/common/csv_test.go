package common

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

func sampleRows() []models.PostingRow {
	return []models.PostingRow{
		{EntryID: "e1", LineNo: 1, Date: "2024-03-01", Payee: "Starbucks", Account: "Expenses:Personal:Food:Coffee", Amount: "150.00", Currency: "THB"},
		{EntryID: "e1", LineNo: 2, Date: "2024-03-01", Payee: "Starbucks", Account: "Assets:Cash", Amount: "-150.00", Currency: "THB"},
	}
}

func TestWritePostingRowsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePostingRowsCSV(&buf, sampleRows(), 0))

	expected := "entry_id,line_no,date,payee,account,amount,currency\n" +
		"e1,1,2024-03-01,Starbucks,Expenses:Personal:Food:Coffee,150.00,THB\n" +
		"e1,2,2024-03-01,Starbucks,Assets:Cash,-150.00,THB\n"
	assert.Equal(t, expected, buf.String())
}

func TestPostingRowsCSV_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePostingRowsCSV(&buf, sampleRows(), ';'))
	assert.Contains(t, buf.String(), "e1;2;2024-03-01;Starbucks;Assets:Cash;-150.00;THB")

	rows, err := ReadPostingRowsCSV(&buf, ';')
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestWritePostingRows(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{"csv", FormatCSV, false, func(t *testing.T, out string) {
			assert.Contains(t, out, "entry_id,line_no")
		}},
		{"default is csv", "", false, func(t *testing.T, out string) {
			assert.Contains(t, out, "entry_id,line_no")
		}},
		{"json", FormatJSON, false, func(t *testing.T, out string) {
			var rows []models.PostingRow
			require.NoError(t, json.Unmarshal([]byte(out), &rows))
			assert.Equal(t, sampleRows(), rows)
		}},
		{"ledger", FormatLedger, false, func(t *testing.T, out string) {
			assert.Equal(t, "2024/03/01 Starbucks\n"+
				"    Expenses:Personal:Food:Coffee  150.00 ฿\n"+
				"    Assets:Cash                   -150.00 ฿\n", out)
		}},
		{"unsupported", "xml", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WritePostingRows(&buf, sampleRows(), tt.format, 0)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, buf.String())
		})
	}
}

func TestWritePostingRowsJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePostingRowsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestExportPostingRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "rows.csv")
	logger := logging.NewMockLogger()

	require.NoError(t, ExportPostingRows(out, sampleRows(), FormatCSV, 0, logger))
	assert.True(t, logger.HasEntry("INFO", "Writing posting rows"))

	rows, err := ReadCSVFile[models.PostingRow](out, logger)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile[models.PostingRow](filepath.Join(t.TempDir(), "absent.csv"), nil)
	assert.Error(t, err)
}

func TestWritePostingRowsLedger_MultipleEntries(t *testing.T) {
	rows := append(sampleRows(), models.PostingRow{
		EntryID: "e2", LineNo: 1, Date: "2024-03-02", Payee: "Shell", Account: "Expenses:Personal:Transport:Fuel", Amount: "40.00", Currency: "USD",
	}, models.PostingRow{
		EntryID: "e2", LineNo: 2, Date: "2024-03-02", Payee: "Shell", Account: "Liabilities:CreditCard", Amount: "-40.00", Currency: "USD",
	})

	var buf bytes.Buffer
	require.NoError(t, WritePostingRowsLedger(&buf, rows))
	assert.Contains(t, buf.String(), "-150.00 ฿\n\n2024/03/02 Shell\n")
	assert.Contains(t, buf.String(), "    Expenses:Personal:Transport:Fuel  $40.00\n")
	assert.True(t, strings.HasSuffix(buf.String(), "    Liabilities:CreditCard\n"))

	rows[0].Amount = "abc"
	assert.Error(t, WritePostingRowsLedger(&bytes.Buffer{}, rows))
}
