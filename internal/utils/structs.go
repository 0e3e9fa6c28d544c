package utils

import (
	"fmt"
	"iter"
	"reflect"
	"strings"
)

// ColumnTag is the struct tag that names a table column.
const ColumnTag = "db"

// columnFields yields the column name and value of every exported field
// tagged with ColumnTag. Tag options after a comma are ignored.
func columnFields(input any) iter.Seq2[string, reflect.Value] {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("utils: expected struct or pointer to struct, got %T", input))
	}

	t := v.Type()
	return func(yield func(string, reflect.Value) bool) {
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			name, _, _ := strings.Cut(field.Tag.Get(ColumnTag), ",")
			if name == "" || name == "-" {
				continue
			}

			if !yield(name, v.Field(i)) {
				return
			}
		}
	}
}

// Columns lists the column names of a row type in field order, for use in
// select statements.
func Columns(input any) []string {
	var cols []string
	for name := range columnFields(input) {
		cols = append(cols, name)
	}
	return cols
}

// ColumnValues maps column names to field values, for use with SetMap.
func ColumnValues(input any) map[string]any {
	values := make(map[string]any)
	for name, field := range columnFields(input) {
		values[name] = field.Interface()
	}
	return values
}

func WrapErr(err error, msg string) error {
	if err == nil || msg == "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
