package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		city string
		want bool
	}{
		{"HOLLYWOOD", true},
		{"hollywood", true},
		{"  Hollywood  ", true},
		{"FORT LAUDERDALE", true},
		{"FT LAUDERDALE", true},
		{"LAUDERDALE BY THE SEA", true},
		{"POMPANO BEACH", true},
		{"PEMBROKE PINES", true},
		{"DANIA BEACH", true},
		{"MIAMI", false},
		{"ORLANDO", false},
		{"TAMPA", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.city))
		})
	}
}
