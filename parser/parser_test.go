package parser

import (
	"testing"

	"github.com/minsoo-dev/libcrowd/models"
)

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name    string
		reading *models.Reading
		wantErr bool
	}{
		{
			name: "valid reading",
			reading: &models.Reading{
				Timestamp: "2025-11-06_11-20-02",
				Floor:     "1F",
				Location:  "대강당",
				Status:    "원활",
			},
			wantErr: false,
		},
		{
			name:    "nil reading",
			reading: nil,
			wantErr: true,
		},
		{
			name: "missing timestamp",
			reading: &models.Reading{
				Floor:    "1F",
				Location: "대강당",
				Status:   "원활",
			},
			wantErr: true,
		},
		{
			name: "missing floor",
			reading: &models.Reading{
				Timestamp: "2025-11-06_11-20-02",
				Location:  "대강당",
				Status:    "원활",
			},
			wantErr: true,
		},
		{
			name: "missing location",
			reading: &models.Reading{
				Timestamp: "2025-11-06_11-20-02",
				Floor:     "1F",
				Status:    "원활",
			},
			wantErr: true,
		},
		{
			name: "blank status",
			reading: &models.Reading{
				Timestamp: "2025-11-06_11-20-02",
				Floor:     "1F",
				Location:  "대강당",
				Status:    "  ",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReading(tt.reading)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReading() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "smooth korean", input: "원활", expected: 1},
		{name: "moderate korean", input: "보통", expected: 2},
		{name: "congested korean", input: "혼잡", expected: 3},
		{name: "smooth english", input: "smooth", expected: 1},
		{name: "congested english", input: "congested", expected: 3},
		{name: "with whitespace", input: " 혼잡 ", expected: 3},
		{name: "unknown token", input: "매우혼잡", expected: 0},
		{name: "empty string", input: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StatusLevel(tt.input)
			if result != tt.expected {
				t.Errorf("StatusLevel(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "with whitespace", input: "  자료실  ", expected: "자료실"},
		{name: "clean", input: "대강당", expected: "대강당"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLocation(tt.input); got != tt.expected {
				t.Errorf("NormalizeLocation(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeFloor(t *testing.T) {
	if got := NormalizeFloor(" B1 "); got != "B1" {
		t.Errorf("NormalizeFloor(\" B1 \") = %q, want B1", got)
	}
}
