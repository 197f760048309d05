// ABOUTME: Textual command protocol spoken between the head office and branch agents.
// ABOUTME: Parses one-line commands and defines the reply text each verb produces.

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Verbs recognized by a branch agent. Anything else, or a known verb with
// the wrong argument count, parses as VerbMalformed.
const (
	VerbHello      = "HELLO"
	VerbGetStock   = "GET_STOCK"
	VerbRestock    = "RESTOCK"
	VerbSale       = "SALE"
	VerbGetSales   = "GET_SALES"
	VerbHire       = "HIRE"
	VerbGetStaff   = "GET_STAFF"
	VerbGetSummary = "GET_SUMMARY"
	VerbExit       = "EXIT"

	// VerbMalformed is the internal verb assigned to unparseable lines.
	VerbMalformed = ""
)

// ShutdownReply is the acknowledgement text a branch sends for EXIT. The
// coordinator matches on it to detect that a branch has begun shutting down.
const ShutdownReply = "Shutting down gracefully."

// arity maps each verb to its required argument count.
var arity = map[string]int{
	VerbHello:      0,
	VerbGetStock:   0,
	VerbRestock:    2,
	VerbSale:       2,
	VerbGetSales:   0,
	VerbHire:       2,
	VerbGetStaff:   0,
	VerbGetSummary: 0,
	VerbExit:       0,
}

// Command is a parsed request: a verb plus its arguments. Raw preserves the
// original line for echoing in malformed-command replies.
type Command struct {
	Verb string
	Args []string
	Raw  string
}

// Malformed reports whether the command failed to parse.
func (c Command) Malformed() bool {
	return c.Verb == VerbMalformed
}

// Parse splits a received line into a Command. Unknown verbs and wrong
// argument counts yield a malformed command; this is a protocol error the
// agent answers with a normal reply line, never a fatal condition.
func Parse(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Raw: line}
	}

	verb := fields[0]
	want, known := arity[verb]
	if !known || len(fields)-1 != want {
		return Command{Raw: line}
	}

	return Command{Verb: verb, Args: fields[1:], Raw: line}
}

// ParseQty converts a quantity argument with the protocol's lenient policy:
// non-numeric and negative input both coerce to zero rather than erroring.
func ParseQty(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Tag prefixes a reply line with its originating branch name.
func Tag(branch, reply string) string {
	return fmt.Sprintf("[%s] %s", branch, reply)
}
