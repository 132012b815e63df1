package utils

import (
	"fmt"
	"reflect"
)

// ColumnTag is the struct tag holding a column name.
var ColumnTag = "db"

// taggedFields calls fn for every exported field of input that carries a
// column tag. input must be a struct or a pointer to one.
func taggedFields(input any, fn func(column string, value reflect.Value)) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, v.Field(i))
	}
}

// StructTagValues returns the column names of input in field order.
func StructTagValues(input any) []string {
	var columns []string
	taggedFields(input, func(column string, _ reflect.Value) {
		columns = append(columns, column)
	})
	return columns
}

// StructToMap keys every tagged field value of input by its column name.
func StructToMap(input any) map[string]any {
	result := make(map[string]any)
	taggedFields(input, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})
	return result
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)
}
