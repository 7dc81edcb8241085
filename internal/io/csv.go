package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// Read reads CSV data and returns a DataFrame. Column types are inferred
// from the data; empty fields become null slots, not zero values.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string
	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose to columns; short rows pad with empty (null) fields.
	columns := make([][]string, len(headers))
	for i := range headers {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, len(headers))
	for i, header := range headers {
		seriesList[i] = r.createSeriesFromStrings(header, columns[i])
	}

	return dataframe.New(seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the type.
func (r *CSVReader) createSeriesFromStrings(name string, data []string) dataframe.ISeries {
	switch r.inferDataType(data) {
	case "bool":
		return r.createBoolSeries(name, data)
	case "int":
		return r.createIntSeries(name, data)
	case "float":
		return r.createFloatSeries(name, data)
	default:
		return r.createStringSeries(name, data)
	}
}

// inferDataType determines the most specific type that fits every non-empty value.
func (r *CSVReader) inferDataType(data []string) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmpty := false

	for _, value := range data {
		if value == "" {
			continue
		}
		hasNonEmpty = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	if !hasNonEmpty {
		return "string"
	}
	if canBeBool {
		return "bool"
	}
	if canBeInt {
		return "int"
	}
	if canBeFloat {
		return "float"
	}
	return "string"
}

func (r *CSVReader) createBoolSeries(name string, data []string) dataframe.ISeries {
	values := make([]bool, len(data))
	valid := make([]bool, len(data))
	hasNull := false
	for i, value := range data {
		if value == "" {
			hasNull = true
			continue
		}
		values[i] = strings.EqualFold(value, trueStr)
		valid[i] = true
	}
	if !hasNull {
		return series.New(name, values, r.mem)
	}
	return series.NewWithNulls(name, values, valid, r.mem)
}

func (r *CSVReader) createIntSeries(name string, data []string) dataframe.ISeries {
	values := make([]int64, len(data))
	valid := make([]bool, len(data))
	hasNull := false
	for i, value := range data {
		if value == "" {
			hasNull = true
			continue
		}
		values[i], _ = strconv.ParseInt(value, 10, 64)
		valid[i] = true
	}
	if !hasNull {
		return series.New(name, values, r.mem)
	}
	return series.NewWithNulls(name, values, valid, r.mem)
}

func (r *CSVReader) createFloatSeries(name string, data []string) dataframe.ISeries {
	values := make([]float64, len(data))
	valid := make([]bool, len(data))
	hasNull := false
	for i, value := range data {
		if value == "" {
			hasNull = true
			continue
		}
		values[i], _ = strconv.ParseFloat(value, 64)
		valid[i] = true
	}
	if !hasNull {
		return series.New(name, values, r.mem)
	}
	return series.NewWithNulls(name, values, valid, r.mem)
}

func (r *CSVReader) createStringSeries(name string, data []string) dataframe.ISeries {
	valid := make([]bool, len(data))
	hasNull := false
	for i, value := range data {
		if value == "" {
			hasNull = true
			continue
		}
		valid[i] = true
	}
	if !hasNull {
		return series.New(name, data, r.mem)
	}
	return series.NewWithNulls(name, data, valid, r.mem)
}

// Write writes the DataFrame to CSV format; nulls become empty fields.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	names := df.Columns()
	for i := 0; i < df.Len(); i++ {
		row := make([]string, len(names))
		for j, name := range names {
			column, ok := df.Column(name)
			if !ok {
				continue
			}
			row[j] = cellString(column, i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// cellString extracts the value at index as a string; nulls are empty.
func cellString(column dataframe.ISeries, index int) string {
	arr := column.Array()
	defer arr.Release()

	if arr.IsNull(index) {
		return ""
	}

	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(index)
	case *array.Int64:
		return strconv.FormatInt(typed.Value(index), 10)
	case *array.Float64:
		return strconv.FormatFloat(typed.Value(index), 'g', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(typed.Value(index))
	default:
		return ""
	}
}
