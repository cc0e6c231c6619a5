package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/dorametrics/internal/contract"
)

// writeWithFile runs write against outputFile, or stdout when it is empty,
// and logs successMsg once a file has been written.
func writeWithFile(outputFile string, write func(io.Writer) error, successMsg string) (err error) {
	out, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if out == os.Stdout {
		return write(out)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", outputFile, cerr)
		}
	}()

	if err := write(out); err != nil {
		return err
	}
	contract.Logger().Info().Str("file", outputFile).Msg(successMsg)
	return nil
}

// writeJSON writes data as two-space indented JSON, the same layout used for
// published reports.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSV writes header followed by rows and reports any buffered write error.
func writeCSV(w io.Writer, header []string, rows [][]string) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// floatFormatter renders percentages and minutes at the configured precision.
func floatFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

func ptrOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
