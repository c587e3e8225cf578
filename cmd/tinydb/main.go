package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/joeandaverde/tinydb/cmd/tinydb/command"
)

func main() {
	args := os.Args[1:]

	commands := map[string]cli.CommandFactory{
		"create-table": func() (cli.Command, error) { return &command.CreateTableCommand{}, nil },
		"insert":       func() (cli.Command, error) { return &command.InsertCommand{}, nil },
		"get":          func() (cli.Command, error) { return &command.GetCommand{}, nil },
		"delete":       func() (cli.Command, error) { return &command.DeleteCommand{}, nil },
		"scan":         func() (cli.Command, error) { return &command.ScanCommand{}, nil },
		"list-tables":  func() (cli.Command, error) { return &command.ListTablesCommand{}, nil },
		"validate":     func() (cli.Command, error) { return &command.ValidateCommand{}, nil },
	}

	tinyCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("tinydb"),
	}

	exitCode, err := tinyCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}
