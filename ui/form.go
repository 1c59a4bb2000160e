package ui

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/core/model"
)

type fieldKind int

const (
	selectField fieldKind = iota
	rangeField
)

// field is one form input. Select fields index into options; range fields
// hold a value in [min,max].
type field struct {
	label   string
	kind    fieldKind
	options []string
	min     int
	max     int
	value   int
	unit    string
}

func (f *field) step(delta int) {
	switch f.kind {
	case selectField:
		n := len(f.options)
		f.value = ((f.value+delta)%n + n) % n
	case rangeField:
		f.value = max(f.min, min(f.max, f.value+delta))
	}
}

func (f field) display() string {
	if f.kind == selectField {
		return f.options[f.value]
	}
	return fmt.Sprintf("%d%s", f.value, f.unit)
}

// fraction is the slider position in [0,1].
func (f field) fraction() float64 {
	if f.kind == selectField {
		if len(f.options) < 2 {
			return 0
		}
		return float64(f.value) / float64(len(f.options)-1)
	}
	return float64(f.value-f.min) / float64(f.max-f.min)
}

const (
	fieldHoliday = iota
	fieldTemp
	fieldWeather
	fieldClouds
	fieldHour
	fieldDay
	fieldMonth
)

func defaultFields() []field {
	return []field{
		fieldHoliday: {label: "Holiday", kind: selectField, options: model.HolidayOptions},
		fieldTemp:    {label: "Temperature", kind: rangeField, min: -20, max: 120, value: 75, unit: "°F"},
		fieldWeather: {label: "Main Weather Condition", kind: selectField, options: model.WeatherOptions},
		fieldClouds:  {label: "Cloud Cover", kind: rangeField, min: 0, max: 100, value: 40, unit: "%"},
		fieldHour:    {label: "Hour of the Day", kind: rangeField, min: 0, max: 23, value: 9},
		fieldDay:     {label: "Day of the Week", kind: selectField, options: model.DayNames[:]},
		fieldMonth:   {label: "Month of the Year", kind: rangeField, min: 1, max: 12, value: 10},
	}
}

// features builds the request from the form. Rain and snow are not collected
// and stay at zero.
func features(fields []field) model.Features {
	hour := fields[fieldHour].value
	return model.Features{
		Holiday:     fields[fieldHoliday].display(),
		Temp:        model.FahrenheitToKelvin(float64(fields[fieldTemp].value)),
		Rain1h:      0,
		Snow1h:      0,
		CloudsAll:   fields[fieldClouds].value,
		WeatherMain: fields[fieldWeather].display(),
		Hour:        hour,
		DayOfWeek:   fields[fieldDay].value,
		Month:       fields[fieldMonth].value,
		IsRushHour:  model.IsRushHour(hour),
	}
}
