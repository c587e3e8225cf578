package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/engine"
	"github.com/joeandaverde/tinydb/internal/engineconfig"
	"github.com/joeandaverde/tinydb/internal/storage"
)

func openEngine(dbPath string, pageSize int) (*engine.Engine, error) {
	config := engineconfig.Default(dbPath)
	if pageSize > 0 {
		config.PageSize = pageSize
	}
	return engine.Start(config, logrus.NewEntry(logrus.StandardLogger()))
}

func fail(format string, args ...interface{}) int {
	_, _ = fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return 1
}

// columnListFlag accumulates repeated -column name:type[:pk][:notnull]
// flags into an ordered Schema using the flag.Value idiom.
type columnListFlag struct {
	columns []storage.ColumnDefinition
}

func (c *columnListFlag) String() string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.Name
	}
	return strings.Join(names, ",")
}

func (c *columnListFlag) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return fmt.Errorf("column spec %q must be name:type[:pk][:notnull]", value)
	}

	dt, err := parseDataType(parts[1])
	if err != nil {
		return err
	}

	col := storage.ColumnDefinition{Name: parts[0], Type: dt}
	for _, f := range parts[2:] {
		switch f {
		case "pk":
			col.PrimaryKey = true
			col.NotNull = true
		case "notnull":
			col.NotNull = true
		default:
			return fmt.Errorf("unknown column flag %q", f)
		}
	}

	c.columns = append(c.columns, col)
	return nil
}

func parseDataType(s string) (storage.DataType, error) {
	switch strings.ToLower(s) {
	case "int", "integer":
		return storage.TypeInteger, nil
	case "real", "float":
		return storage.TypeReal, nil
	case "bool", "boolean":
		return storage.TypeBool, nil
	case "text", "string":
		return storage.TypeText, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// parseValue converts a CLI argument into a storage.Value conforming to
// col, using the literal token "NULL" (case-insensitive) to mean a
// missing value for nullable columns.
func parseValue(raw string, col storage.ColumnDefinition) (storage.Value, error) {
	if strings.EqualFold(raw, "NULL") {
		if col.NotNull {
			return nil, fmt.Errorf("column %q is NOT NULL", col.Name)
		}
		return nil, nil
	}

	switch col.Type {
	case storage.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return int32(n), nil
	case storage.TypeReal:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return float32(f), nil
	case storage.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return b, nil
	case storage.TypeText:
		return raw, nil
	default:
		return nil, fmt.Errorf("column %q has unknown type", col.Name)
	}
}

// formatValue renders a decoded storage.Value for terminal output.
func formatValue(v storage.Value) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
