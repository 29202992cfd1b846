package main

import (
	"bytes"
	"strings"
	"testing"

	"go-site-inventory/internal/service"

	"github.com/shopspring/decimal"
)

func TestPrintTally(t *testing.T) {
	var buf bytes.Buffer
	rows := []service.TallyRow{
		{Variant: "12mm", Length: "12", Pieces: decimal.NewFromInt(469), OK: true},
		{Variant: "16mm", Length: "12", Brand: "JSW", Pieces: decimal.NewFromInt(52), OK: false},
	}

	drifted := printTally(&env{out: &buf}, rows)
	if drifted != 1 {
		t.Errorf("printTally() = %d, want 1", drifted)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "VARIANT") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "JSW") || !strings.HasSuffix(lines[2], "NO") {
		t.Errorf("drifted row = %q, want JSW ... NO", lines[2])
	}
}
