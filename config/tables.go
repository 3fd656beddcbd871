package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gigapi/gigagroup/frame"
)

// TableDefinition declares one table the service should expose at
// startup, read from the yaml file the `tables` setting points at.
type TableDefinition struct {
	Name    string       `yaml:"name"`
	Schema  frame.Schema `yaml:"schema"`
	Parquet string       `yaml:"parquet,omitempty"` // optional file to preload
}

type TablesFile struct {
	Tables []TableDefinition `yaml:"tables"`
}

// LoadTables reads the table definitions from a yaml file.
func LoadTables(filename string) (*TablesFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var res TablesFile
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
