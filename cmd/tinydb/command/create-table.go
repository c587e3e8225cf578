package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// CreateTableCommand registers a new table with an explicit column list.
type CreateTableCommand struct{}

func (c *CreateTableCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb create-table -db path -table name -column spec [-column spec ...]

  Creates a table. Each -column is "name:type[:pk][:notnull]" where type
  is one of int, real, bool, text. Exactly one column must be :pk.
`)
}

func (c *CreateTableCommand) Synopsis() string {
	return "Create a table"
}

func (c *CreateTableCommand) Run(args []string) int {
	flags := flag.NewFlagSet("create-table", flag.ExitOnError)
	dbPath := flags.String("db", "", "path to the database file")
	pageSize := flags.Int("page-size", 0, "page size in bytes (new databases only)")
	table := flags.String("table", "", "table name")
	var columns columnListFlag
	flags.Var(&columns, "column", "column spec name:type[:pk][:notnull], repeatable")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *dbPath == "" || *table == "" {
		return fail("-db and -table are required")
	}
	if len(columns.columns) == 0 {
		return fail("at least one -column is required")
	}

	schema := storage.Schema{Columns: columns.columns}
	pkCount := 0
	for _, col := range schema.Columns {
		if col.PrimaryKey {
			pkCount++
		}
	}
	if pkCount != 1 {
		return fail("exactly one column must be marked :pk")
	}

	eng, err := openEngine(*dbPath, *pageSize)
	if err != nil {
		return fail("%v", err)
	}
	defer eng.Close()

	if _, err := eng.CreateTable(*table, schema, fmt.Sprintf("CREATE TABLE %s (...)", *table)); err != nil {
		return fail("%v", err)
	}

	fmt.Printf("created table %q\n", *table)
	return 0
}
