package command

import (
	"flag"
	"fmt"
	"strings"
)

// ScanCommand prints every row of a table in ascending key order.
type ScanCommand struct{}

func (c *ScanCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb scan -db path -table name

  Prints every row of the table in ascending primary-key order.
`)
}

func (c *ScanCommand) Synopsis() string {
	return "Scan a table in key order"
}

func (c *ScanCommand) Run(args []string) int {
	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	dbPath := flags.String("db", "", "path to the database file")
	table := flags.String("table", "", "table name")
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

	rows, err := eng.Scan(*table)
	if err != nil {
		return fail("%v", err)
	}

	for _, row := range rows {
		printRow(row)
	}
	fmt.Printf("%d rows\n", len(rows))
	return 0
}
