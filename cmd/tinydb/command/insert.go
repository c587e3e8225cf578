package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// insertValueFlag accumulates repeated -value flags in schema column
// order, mirroring columnListFlag's flag.Value idiom.
type insertValueFlag struct {
	values []string
}

func (v *insertValueFlag) String() string { return strings.Join(v.values, ",") }

func (v *insertValueFlag) Set(s string) error {
	v.values = append(v.values, s)
	return nil
}

// InsertCommand inserts one row into a table, typing each -value per the
// table's registered schema.
type InsertCommand struct{}

func (c *InsertCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb insert -db path -table name -value v [-value v ...]

  Inserts a row. Values are given in schema column order; use the
  literal token NULL for a nullable column's missing value.
`)
}

func (c *InsertCommand) Synopsis() string {
	return "Insert a row into a table"
}

func (c *InsertCommand) Run(args []string) int {
	flags := flag.NewFlagSet("insert", flag.ExitOnError)
	dbPath := flags.String("db", "", "path to the database file")
	table := flags.String("table", "", "table name")
	var rawValues insertValueFlag
	flags.Var(&rawValues, "value", "column value in schema order, repeatable")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *dbPath == "" || *table == "" {
		return fail("-db and -table are required")
	}

	eng, err := openEngine(*dbPath, 0)
	if err != nil {
		return fail("%v", err)
	}
	defer eng.Close()

	td, err := eng.GetTable(*table)
	if err != nil {
		return fail("%v", err)
	}
	if len(rawValues.values) != len(td.Schema.Columns) {
		return fail("expected %d -value flags for table %q, got %d", len(td.Schema.Columns), *table, len(rawValues.values))
	}

	values := make([]storage.Value, len(rawValues.values))
	for i, raw := range rawValues.values {
		v, err := parseValue(raw, td.Schema.Columns[i])
		if err != nil {
			return fail("%v", err)
		}
		values[i] = v
	}

	if err := eng.Insert(*table, values); err != nil {
		return fail("%v", err)
	}

	fmt.Println("inserted 1 row")
	return 0
}
