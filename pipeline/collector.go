package pipeline

import (
	"errors"
	"fmt"

	"github.com/use-agent/sectify/models"
)

// collector accumulates non-fatal failures in the order they occur.
// The scrape never aborts on a stage failure; the collector is how the
// final result reports what was lost.
type collector struct {
	records []models.ErrorRecord
}

func newCollector() *collector {
	return &collector{}
}

// add appends a record for the given stage.
func (c *collector) add(stage, format string, args ...any) {
	c.records = append(c.records, models.ErrorRecord{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}

// addErr appends a record derived from err. StageErrors keep their own
// stage tag; anything else is attributed to the fallback stage.
func (c *collector) addErr(fallbackStage string, err error) {
	var stageErr *models.StageError
	if errors.As(err, &stageErr) {
		c.records = append(c.records, stageErr.Record())
		return
	}
	c.add(fallbackStage, "%v", err)
}

// extend appends already-built records, preserving their order.
func (c *collector) extend(records []models.ErrorRecord) {
	c.records = append(c.records, records...)
}

// all returns the accumulated records, never nil.
func (c *collector) all() []models.ErrorRecord {
	if c.records == nil {
		return []models.ErrorRecord{}
	}
	return c.records
}
