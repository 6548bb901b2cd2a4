package features

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/jengzang/flight-delay-backend-go/internal/models"
)

var (
	// ErrEmptyBatch is returned when preprocessing zero records
	ErrEmptyBatch = errors.New("features: empty batch")
	// ErrLabelUnavailable is returned when labels are requested for records without both timestamps
	ErrLabelUnavailable = errors.New("features: label unavailable, Fecha-I and Fecha-O are required")
	// ErrSchemaMismatch is returned when a frame does not carry exactly the Schema columns
	ErrSchemaMismatch = errors.New("features: frame does not match feature schema")
)

// Batch is the output of preprocessing a set of flights
type Batch struct {
	// Features has exactly the Schema columns in Schema order
	Features dataframe.DataFrame
	// Labels is set only by PreprocessWithLabel
	Labels []int
	// Derived is set when every record carries both timestamps
	Derived []Derived
}

// Len returns the number of rows in the batch
func (b *Batch) Len() int {
	return b.Features.Nrow()
}

// Preprocess turns raw flights into the canonical feature frame
func Preprocess(flights []models.Flight) (*Batch, error) {
	return preprocess(flights, false)
}

// PreprocessWithLabel is Preprocess plus the delay label of every record
func PreprocessWithLabel(flights []models.Flight) (*Batch, error) {
	return preprocess(flights, true)
}

func preprocess(flights []models.Flight, withLabel bool) (*Batch, error) {
	if len(flights) == 0 {
		return nil, ErrEmptyBatch
	}

	batch := &Batch{}

	derived, err := deriveAll(flights)
	if err != nil {
		return nil, err
	}
	batch.Derived = derived

	if withLabel {
		if derived == nil {
			return nil, ErrLabelUnavailable
		}
		batch.Labels = make([]int, len(derived))
		for i, d := range derived {
			batch.Labels[i] = d.Delay
		}
	}

	df := encode(flights)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to encode flights: %w", df.Err)
	}

	df, err = reconcile(df)
	if err != nil {
		return nil, err
	}
	batch.Features = df

	return batch, nil
}

// deriveAll returns nil without error when any record lacks a timestamp
func deriveAll(flights []models.Flight) ([]Derived, error) {
	for _, f := range flights {
		if !f.HasTimestamps() {
			return nil, nil
		}
	}

	derived := make([]Derived, len(flights))
	for i, f := range flights {
		d, err := Derive(f)
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", i, err)
		}
		derived[i] = d
	}
	return derived, nil
}

// encode one-hot encodes airline, flight type and month over the categories
// present in the batch
func encode(flights []models.Flight) dataframe.DataFrame {
	airlines := make([]string, len(flights))
	types := make([]string, len(flights))
	months := make([]string, len(flights))
	for i, f := range flights {
		airlines[i] = f.Airline
		types[i] = f.FlightType
		months[i] = strconv.Itoa(f.Month)
	}

	var cols []series.Series
	cols = append(cols, dummies(PrefixAirline, airlines)...)
	cols = append(cols, dummies(PrefixFlightType, types)...)
	cols = append(cols, dummies(PrefixMonth, months)...)

	return dataframe.New(cols...)
}

func dummies(prefix string, values []string) []series.Series {
	seen := make(map[string]bool)
	var categories []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			categories = append(categories, v)
		}
	}
	sort.Strings(categories)

	cols := make([]series.Series, 0, len(categories))
	for _, category := range categories {
		indicator := make([]int, len(values))
		for i, v := range values {
			if v == category {
				indicator[i] = 1
			}
		}
		cols = append(cols, series.New(indicator, series.Int, prefix+"_"+category))
	}
	return cols
}

// reconcile drops columns outside Schema, zero-fills missing Schema columns
// and reorders to Schema order
func reconcile(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}

	for _, col := range Schema {
		if !present[col] {
			df = df.Mutate(series.New(make([]int, df.Nrow()), series.Int, col))
		}
	}

	df = df.Select(Schema)
	if df.Err != nil {
		return df, fmt.Errorf("failed to select feature columns: %w", df.Err)
	}
	return df, nil
}

// Matrix converts a canonical feature frame to row-major float64 values
func Matrix(df dataframe.DataFrame) ([][]float64, error) {
	names := df.Names()
	if len(names) != len(Schema) {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrSchemaMismatch, len(names), len(Schema))
	}
	for i, name := range names {
		if name != Schema[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, i, name, Schema[i])
		}
	}

	rows := make([][]float64, df.Nrow())
	for i := range rows {
		rows[i] = make([]float64, len(Schema))
	}
	for j, name := range Schema {
		for i, v := range df.Col(name).Float() {
			rows[i][j] = v
		}
	}
	return rows, nil
}
