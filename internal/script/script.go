// ABOUTME: Demo command script: the sequence of commands the head office plays after handshake.
// ABOUTME: Ships a built-in default and loads operator-supplied scripts from TOML files.

package script

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Step is one scripted command. An empty Branch means broadcast.
type Step struct {
	Branch  string `toml:"branch"`
	Command string `toml:"command"`
}

// file is the TOML document shape:
//
//	[[step]]
//	branch = "Ahmedabad"
//	command = "RESTOCK shirts 10"
type file struct {
	Step []Step `toml:"step"`
}

// Load reads a script from a TOML file. Environment variables in the format
// ${VAR_NAME} are expanded before parsing.
func Load(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script file: %w", err)
	}

	var f file
	if err := toml.Unmarshal([]byte(expandEnvVars(string(data))), &f); err != nil {
		return nil, fmt.Errorf("parsing script file: %w", err)
	}

	for i, s := range f.Step {
		if s.Command == "" {
			return nil, fmt.Errorf("script step %d: command is required", i+1)
		}
	}
	return f.Step, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable
// values; unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(re.FindStringSubmatch(match)[1])
	})
}

// Default returns the built-in demo sequence, spread across however many
// branches are configured. With fewer than three branches the targeted
// steps wrap around the roster.
func Default(branches []string) []Step {
	if len(branches) == 0 {
		return nil
	}
	at := func(i int) string { return branches[i%len(branches)] }

	return []Step{
		{Command: "GET_SUMMARY"},
		{Branch: at(0), Command: "RESTOCK shirts 10"},
		{Branch: at(1), Command: "SALE jeans 5"},
		{Branch: at(2), Command: "HIRE Anil Cashier"},
		{Branch: at(0), Command: "SALE shirts 3"},
		{Branch: at(1), Command: "RESTOCK jeans 7"},
		{Command: "GET_STOCK"},
		{Command: "GET_STAFF"},
		{Branch: at(2), Command: "SALE shirts 2"},
		{Branch: at(2), Command: "SALE jeans 1"},
		{Command: "GET_SALES"},
		{Command: "GET_SUMMARY"},
	}
}
