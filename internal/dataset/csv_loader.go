package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/flight-delay-backend-go/internal/models"
)

// requiredColumns must appear in the CSV header
var requiredColumns = []string{"OPERA", "TIPOVUELO", "MES"}

// LoadCSV decodes historical flights from CSV. The header must name the
// OPERA, TIPOVUELO and MES columns; Fecha-I and Fecha-O are optional and
// any other columns are ignored.
func LoadCSV(reader io.Reader, logger *logrus.Logger) ([]models.Flight, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	decoder, err := csvutil.NewDecoder(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read CSV header: empty input")
		}
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	if err := checkHeader(decoder.Header()); err != nil {
		return nil, err
	}

	var flights []models.Flight
	if err := decoder.Decode(&flights); err != nil {
		return nil, fmt.Errorf("failed to decode flight CSV data: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"flights": len(flights),
		"ignored": decoder.Unused(),
	}).Debug("Parsed flights from CSV")
	return flights, nil
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return fmt.Errorf("CSV header is missing column %q", col)
		}
	}
	return nil
}
