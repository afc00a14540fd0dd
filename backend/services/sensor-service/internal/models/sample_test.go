package models

import (
	"errors"
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func validInput() SampleInput {
	return SampleInput{
		Voltage:     ptr(12.6),
		Current:     ptr(-1.2),
		Temperature: ptr(31.5),
		Latitude:    ptr(13.08),
		Longitude:   ptr(80.27),
	}
}

func TestSampleInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SampleInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(*SampleInput) {}},
		{name: "zero values are present", mutate: func(in *SampleInput) { in.Current = ptr(0) }},
		{name: "missing voltage", mutate: func(in *SampleInput) { in.Voltage = nil }, wantErr: true},
		{name: "missing longitude", mutate: func(in *SampleInput) { in.Longitude = nil }, wantErr: true},
		{name: "nan temperature", mutate: func(in *SampleInput) { in.Temperature = ptr(math.NaN()) }, wantErr: true},
		{name: "latitude out of range", mutate: func(in *SampleInput) { in.Latitude = ptr(91) }, wantErr: true},
		{name: "soh out of range", mutate: func(in *SampleInput) { in.SOH = ptr(120) }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSample) {
					t.Fatalf("expected ErrInvalidSample, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSampleInputConversion(t *testing.T) {
	in := validInput()
	in.SOH = ptr(94.5)
	s := in.Sample()
	if s.Voltage != 12.6 || s.Current != -1.2 || s.SOH == nil || *s.SOH != 94.5 {
		t.Fatalf("unexpected sample %+v", s)
	}
}
