package command

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/joeandaverde/tinydb/internal/engine"
)

// GetCommand prints the row stored under a key in a table.
type GetCommand struct{}

func (c *GetCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb get -db path -table name -key k

  Prints the row stored under the primary key k.
`)
}

func (c *GetCommand) Synopsis() string {
	return "Get a row by primary key"
}

func (c *GetCommand) Run(args []string) int {
	flags := flag.NewFlagSet("get", flag.ExitOnError)
	dbPath := flags.String("db", "", "path to the database file")
	table := flags.String("table", "", "table name")
	key := flags.String("key", "", "primary key value")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *dbPath == "" || *table == "" || *key == "" {
		return fail("-db, -table and -key are required")
	}
	k, err := strconv.ParseInt(*key, 10, 32)
	if err != nil {
		return fail("invalid -key: %v", err)
	}

	eng, err := openEngine(*dbPath, 0)
	if err != nil {
		return fail("%v", err)
	}
	defer eng.Close()

	row, err := eng.Get(*table, int32(k))
	if err != nil {
		return fail("%v", err)
	}

	printRow(row)
	return 0
}

func printRow(row engine.Row) {
	fmt.Printf("key=%d", row.Key)
	for _, v := range row.Values {
		fmt.Printf(" %s", formatValue(v))
	}
	fmt.Println()
}
