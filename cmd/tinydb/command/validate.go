package command

import (
	"flag"
	"fmt"
	"strings"
)

// ValidateCommand walks the whole database's trees, checking structural
// and free-space invariants across every table.
type ValidateCommand struct{}

func (c *ValidateCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb validate -db path

  Checks every table's tree structure and the page free list for
  consistency. Exits non-zero on the first violation found.
`)
}

func (c *ValidateCommand) Synopsis() string {
	return "Validate database structural invariants"
}

func (c *ValidateCommand) Run(args []string) int {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	dbPath := flags.String("db", "", "path to the database file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *dbPath == "" {
		return fail("-db is required")
	}

	eng, err := openEngine(*dbPath, 0)
	if err != nil {
		return fail("%v", err)
	}
	defer eng.Close()

	if err := eng.Validate(); err != nil {
		return fail("%v", err)
	}

	fmt.Println("ok")
	return 0
}
