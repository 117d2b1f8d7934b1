// Package reconcile normalizes the raw tables the store returns into the
// fixed column schema and field types the rest of the application assumes.
// All data-shape problems are absorbed here: missing columns are
// materialized, unknown columns dropped, and unparseable values replaced
// with sentinels, so handlers never see a malformed table.
package reconcile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind classifies a column for type coercion.
type Kind int

const (
	Text Kind = iota
	Date
	Integer
	Image
)

// Column is one expected column of a table schema.
type Column struct {
	Name    string
	Kind    Kind
	Aliases []string // alternate headers seen in drifted sheets
}

// Schema is the expected column set of one table, in canonical order.
type Schema struct {
	Table   string
	Columns []Column
}

// Names returns the canonical column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Maintenance is the canonical maintenance_data schema.
var Maintenance = Schema{
	Table: "maintenance_data",
	Columns: []Column{
		{Name: "設備名", Kind: Text, Aliases: []string{"設備", "equipment"}},
		{Name: "最終点検日", Kind: Date, Aliases: []string{"点検日", "作業日"}},
		{Name: "作業内容", Kind: Text},
		{Name: "費用", Kind: Integer, Aliases: []string{"費用（円）", "コスト"}},
		{Name: "備考", Kind: Text},
		{Name: "画像", Kind: Image},
	},
}

// Stock is the canonical stock_data schema.
var Stock = Schema{
	Table: "stock_data",
	Columns: []Column{
		{Name: "分類", Kind: Text, Aliases: []string{"カテゴリ"}},
		{Name: "部品名", Kind: Text, Aliases: []string{"部品", "品名"}},
		{Name: "在庫数", Kind: Integer, Aliases: []string{"数量"}},
		{Name: "単価", Kind: Integer, Aliases: []string{"単価（円）"}},
		{Name: "発注点", Kind: Integer},
		{Name: "最終更新日", Kind: Date, Aliases: []string{"更新日"}},
	},
}

// aliasFile is the on-disk shape of an optional alias override file,
// mapping canonical column names to extra accepted headers per table.
type aliasFile struct {
	Version int                            `yaml:"version"`
	Tables  map[string]map[string][]string `yaml:"tables"`
}

// LoadAliases merges additional header aliases from a YAML file into the
// given schemas. Missing file is not an error; the built-in aliases stand.
func LoadAliases(path string, schemas ...*Schema) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	for _, s := range schemas {
		extra, ok := f.Tables[s.Table]
		if !ok {
			continue
		}
		for i := range s.Columns {
			if add, ok := extra[s.Columns[i].Name]; ok {
				s.Columns[i].Aliases = append(s.Columns[i].Aliases, add...)
			}
		}
	}
	return nil
}
