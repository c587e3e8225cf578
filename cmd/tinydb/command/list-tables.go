package command

import (
	"flag"
	"fmt"
	"strings"
)

// ListTablesCommand prints every registered table's name and root page.
type ListTablesCommand struct{}

func (c *ListTablesCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb list-tables -db path

  Prints every registered table's name and data tree root page.
`)
}

func (c *ListTablesCommand) Synopsis() string {
	return "List registered tables"
}

func (c *ListTablesCommand) Run(args []string) int {
	flags := flag.NewFlagSet("list-tables", flag.ExitOnError)
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

	tables, err := eng.ListTables()
	if err != nil {
		return fail("%v", err)
	}

	for _, td := range tables {
		fmt.Printf("%s (root=%d)\n", td.Name, td.Root)
	}
	return 0
}
