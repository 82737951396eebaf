package simulation

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/forecastly/forecastly/pkg/localdate"
	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	Render(entries []BalanceEntry) (string, error)
}

type CsvRenderer struct{}

func NewCsvRenderer() *CsvRenderer {
	return &CsvRenderer{}
}

// Render writes one row per day: date, day amount, balance and the titles of the day's
// events joined with "; ".
func (r *CsvRenderer) Render(entries []BalanceEntry) (string, error) {
	data := make([][]string, 0, len(entries)+1)
	data = append(data, []string{"Date", "Day amount", "Balance", "Events"})
	for _, entry := range entries {
		titles := make([]string, 0, len(entry.Events))
		for _, e := range entry.Events {
			titles = append(titles, e.Title)
		}
		data = append(data, []string{
			localdate.Format(entry.Date),
			entry.DayAmount.StringFixed(2),
			entry.Balance.StringFixed(2),
			strings.Join(titles, "; "),
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
