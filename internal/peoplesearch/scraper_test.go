package peoplesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs404(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			"not-found heading",
			"404 - Page Not Found\nThe page you requested does not exist.",
			true,
		},
		{
			"error heading",
			"Error 404\nNothing here.",
			true,
		},
		{
			"no results banner",
			"No results found for your search.",
			true,
		},
		{
			"could not find banner",
			"We could not find anyone matching that name.",
			true,
		},
		{
			"result card with a 404 house number",
			"John Smith\n404 Oak Ave, Hollywood, FL 33021\nLast Known Phone Numbers\n(305) 555-0100 Mobile",
			false,
		},
		{
			"ordinary results page",
			"John Smith\nLast Known Phone Numbers\n(954) 555-0001 Mobile",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, is404(tt.body))
		})
	}
}
