package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"payguard/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error when GOOGLE_SPREADSHEET_ID is missing")
	}
	if !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("error should name the missing variable, got: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error when no credentials are configured")
	}
	if !strings.Contains(err.Error(), "service account credentials") {
		t.Fatalf("error should mention credentials, got: %v", err)
	}
}

func TestAppendTransaction_RejectsInvalidEntry(t *testing.T) {
	c := &Client{spreadsheetID: "sheet123", statementSheet: "Statements"}

	err := c.AppendTransaction(context.Background(), core.Transaction{
		ID:            "tx-1",
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@x.com",
		AmountCents:   0, // invalid
		DateTime:      time.Now(),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStatementRow(t *testing.T) {
	at := time.Date(2024, time.March, 15, 14, 0, 0, 0, time.UTC)
	row := statementRow(core.Transaction{
		ID:            "tx-1",
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@x.com",
		AmountCents:   12550,
		DateTime:      at,
	})

	if len(row) != 5 {
		t.Fatalf("row has %d columns, want 5", len(row))
	}
	if row[0] != "2024-03-15T14:00:00Z" {
		t.Errorf("timestamp column = %v", row[0])
	}
	if row[1] != "tx-1" || row[2] != "a@x.com" || row[3] != "b@x.com" {
		t.Errorf("identity columns = %v", row[1:4])
	}
	if row[4] != 125.50 {
		t.Errorf("amount column = %v, want 125.50", row[4])
	}
}
