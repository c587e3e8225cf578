package command

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// DeleteCommand removes the row stored under a key in a table.
type DeleteCommand struct{}

func (c *DeleteCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb delete -db path -table name -key k

  Deletes the row stored under the primary key k.
`)
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a row by primary key"
}

func (c *DeleteCommand) Run(args []string) int {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
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

	if err := eng.Delete(*table, int32(k)); err != nil {
		return fail("%v", err)
	}

	fmt.Println("deleted 1 row")
	return 0
}
