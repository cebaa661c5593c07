// Package loader implements the external collaborators around the core:
// capability-model loading and schedule import/export.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/schoolgrid/timetable/pkg/model"
)

type classEntry struct {
	Grade  int
	Number int
}

type assignmentEntry struct {
	Subject string
	Grade   int
	Number  int
	Teacher string
}

type hoursEntry struct {
	Grade   int
	Number  int
	Subject string
	Hours   int
}

type unavailabilityEntry struct {
	Teacher string
	Day     int
	Period  int
}

type overlapEntry struct {
	Teacher string
	Day     int
}

type schoolFile struct {
	Classes            []classEntry
	Teachers           []string
	SubjectTeachers    map[string][]string `mapstructure:"subjectTeachers"`
	TeacherAssignments []assignmentEntry   `mapstructure:"teacherAssignments"`
	Hours              []hoursEntry
	Unavailability     []unavailabilityEntry
	OverlapExceptions  []overlapEntry `mapstructure:"overlapExceptions"`
	UseDefaultHours    bool           `mapstructure:"useDefaultHours"`
}

// SchoolFromJSON builds the read-only capability model from a JSON file.
func SchoolFromJSON(path string) (*model.School, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read school file: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("cannot parse school file: %w", err)
	}

	var file schoolFile
	if err := mapstructure.Decode(payload, &file); err != nil {
		return nil, fmt.Errorf("cannot decode school file: %w", err)
	}

	return model.NewSchool(configFromFile(file))
}

func configFromFile(file schoolFile) model.SchoolConfig {
	cfg := model.SchoolConfig{
		SubjectTeachers: make(map[model.Subject][]model.Teacher),
	}

	for _, entry := range file.Classes {
		cfg.Classes = append(cfg.Classes, model.ClassRef{Grade: entry.Grade, Number: entry.Number})
	}
	for _, name := range file.Teachers {
		cfg.Teachers = append(cfg.Teachers, model.Teacher(name))
	}
	for subject, names := range file.SubjectTeachers {
		for _, name := range names {
			cfg.SubjectTeachers[model.Subject(subject)] = append(cfg.SubjectTeachers[model.Subject(subject)], model.Teacher(name))
		}
	}
	for _, entry := range file.TeacherAssignments {
		cfg.TeacherAssignments = append(cfg.TeacherAssignments, model.TeacherAssignment{
			Subject: model.Subject(entry.Subject),
			Class:   model.ClassRef{Grade: entry.Grade, Number: entry.Number},
			Teacher: model.Teacher(entry.Teacher),
		})
	}

	overridden := make(map[string]struct{})
	for _, entry := range file.Hours {
		class := model.ClassRef{Grade: entry.Grade, Number: entry.Number}
		overridden[class.String()+"|"+entry.Subject] = struct{}{}
		cfg.HoursOverrides = append(cfg.HoursOverrides, model.HoursOverride{
			Class:   class,
			Subject: model.Subject(entry.Subject),
			Hours:   entry.Hours,
		})
	}
	if file.UseDefaultHours {
		for _, entry := range file.Classes {
			class := model.ClassRef{Grade: entry.Grade, Number: entry.Number}
			for subject, hours := range model.DefaultStandardHours() {
				if _, ok := overridden[class.String()+"|"+string(subject)]; ok {
					continue
				}
				cfg.HoursOverrides = append(cfg.HoursOverrides, model.HoursOverride{
					Class:   class,
					Subject: subject,
					Hours:   hours,
				})
			}
		}
	}

	for _, entry := range file.Unavailability {
		cfg.Unavailabilities = append(cfg.Unavailabilities, model.Unavailability{
			Teacher: model.Teacher(entry.Teacher),
			Slot:    model.TimeSlot{Day: entry.Day, Period: entry.Period},
		})
	}
	for _, entry := range file.OverlapExceptions {
		cfg.OverlapExceptions = append(cfg.OverlapExceptions, model.OverlapException{
			Teacher: model.Teacher(entry.Teacher),
			Day:     entry.Day,
		})
	}

	return cfg
}
