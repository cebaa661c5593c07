package loader

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/schoolgrid/timetable/pkg/model"
)

// scheduleRow is the columnar exchange format for one grid cell.
type scheduleRow struct {
	Day     int    `csv:"day"`
	Period  int    `csv:"period"`
	Grade   int    `csv:"grade"`
	Class   int    `csv:"class"`
	Subject string `csv:"subject"`
	Teacher string `csv:"teacher"`
	Locked  bool   `csv:"locked"`
}

// ScheduleFromCSV loads a partially-filled grid, applying pre-set locks
// after placement. Cluster rows are unit-synchronized on load, matching the
// grid's own write semantics.
func ScheduleFromCSV(path string) (*model.Schedule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open schedule file: %w", err)
	}
	defer file.Close()

	rows := []*scheduleRow{}
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("cannot parse schedule file: %w", err)
	}

	schedule := model.NewSchedule()
	for _, row := range rows {
		slot := model.TimeSlot{Day: row.Day, Period: row.Period}
		class := model.ClassRef{Grade: row.Grade, Number: row.Class}
		if !slot.Valid() || !class.Valid() {
			return nil, fmt.Errorf("invalid cell %v %v in schedule file", slot, class)
		}
		assignment := model.Assignment{
			Class:   class,
			Subject: model.Subject(row.Subject),
			Teacher: model.Teacher(row.Teacher),
		}
		if err := schedule.Assign(slot, assignment); err != nil {
			return nil, fmt.Errorf("cannot load cell %v %v: %w", slot, class, err)
		}
	}
	for _, row := range rows {
		if row.Locked {
			schedule.Lock(model.TimeSlot{Day: row.Day, Period: row.Period}, model.ClassRef{Grade: row.Grade, Number: row.Class})
		}
	}
	return schedule, nil
}

// WriteScheduleCSV exports the final grid for the persistence sink.
func WriteScheduleCSV(path string, schedule *model.Schedule) error {
	rows := []*scheduleRow{}
	for _, placed := range schedule.All() {
		rows = append(rows, &scheduleRow{
			Day:     placed.Slot.Day,
			Period:  placed.Slot.Period,
			Grade:   placed.Assignment.Class.Grade,
			Class:   placed.Assignment.Class.Number,
			Subject: string(placed.Assignment.Subject),
			Teacher: string(placed.Assignment.Teacher),
			Locked:  schedule.IsLocked(placed.Slot, placed.Assignment.Class),
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create schedule file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("cannot write schedule file: %w", err)
	}
	return nil
}
