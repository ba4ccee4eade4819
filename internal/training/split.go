package training

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/buildcast/internal/table"
)

var ErrEmptySplit = errors.New("empty train or validation window")

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
}

type Splitter struct {
	Train      Window
	Validation Window
}

// DefaultSplitter trains on the first half of 2023 and validates on the
// second half.
func DefaultSplitter() Splitter {
	return Splitter{
		Train: Window{
			From: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		Validation: Window{
			From: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Split partitions ds by timestamp. Rows outside both windows are ignored.
func (s Splitter) Split(ds *table.Table) (train, validation *table.Table, err error) {
	train = ds.Between(s.Train.From, s.Train.To)
	validation = ds.Between(s.Validation.From, s.Validation.To)
	if train.Len() == 0 || validation.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: train %s has %d rows, validation %s has %d rows",
			ErrEmptySplit, s.Train, train.Len(), s.Validation, validation.Len())
	}
	return train, validation, nil
}
