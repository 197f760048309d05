// ABOUTME: Tests for command parsing: verbs, arity checks, and the lenient quantity policy.
// ABOUTME: Malformed input must parse into a harmless command that echoes the original line.

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantVerb string
		wantArgs []string
	}{
		{"hello", "HELLO", VerbHello, []string{}},
		{"get stock", "GET_STOCK", VerbGetStock, []string{}},
		{"restock", "RESTOCK shirts 10", VerbRestock, []string{"shirts", "10"}},
		{"sale", "SALE jeans 5", VerbSale, []string{"jeans", "5"}},
		{"hire", "HIRE Anil Cashier", VerbHire, []string{"Anil", "Cashier"}},
		{"exit", "EXIT", VerbExit, []string{}},
		{"extra whitespace", "  RESTOCK   shirts   10  ", VerbRestock, []string{"shirts", "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.line)
			assert.False(t, cmd.Malformed())
			assert.Equal(t, tt.wantVerb, cmd.Verb)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			assert.Equal(t, tt.line, cmd.Raw)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"FROBNICATE",
		"hello",              // verbs are case-sensitive
		"RESTOCK shirts",     // missing quantity
		"RESTOCK shirts 1 2", // too many args
		"HELLO there",
		"EXIT now",
		"GET_SUMMARY please",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			cmd := Parse(line)
			assert.True(t, cmd.Malformed())
			assert.Equal(t, line, cmd.Raw)
		})
	}
}

func TestParseQty(t *testing.T) {
	assert.Equal(t, 10, ParseQty("10"))
	assert.Equal(t, 0, ParseQty("0"))

	// Lenient policy: non-numeric and negative both coerce to zero.
	assert.Equal(t, 0, ParseQty("lots"))
	assert.Equal(t, 0, ParseQty(""))
	assert.Equal(t, 0, ParseQty("-5"))
	assert.Equal(t, 0, ParseQty("3.5"))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "[Surat] Hello from Surat.", Tag("Surat", "Hello from Surat."))
}
