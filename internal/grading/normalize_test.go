package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswersMatch_SingleToken(t *testing.T) {
	cases := []struct {
		name    string
		student string
		correct string
		want    bool
	}{
		{"case insensitive", "Paris", "paris", true},
		{"whitespace trimmed", "  paris  ", "paris", true},
		{"different answer", "london", "paris", false},
		{"empty student answer", "", "paris", false},
		{"empty correct answer", "paris", "", false},
		{"both empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, answersMatch(tc.student, tc.correct))
		})
	}
}

func TestAnswersMatch_TokenSets(t *testing.T) {
	cases := []struct {
		name    string
		student string
		correct string
		want    bool
	}{
		{"order independent", "b,a", "a,b", true},
		{"star markers stripped", "a,c", "*A, *C", true},
		{"mixed delimiters", "a|b;c", "a, b, c", true},
		{"missing token", "a", "a,b", false},
		{"extra token", "a,b,c", "a,b", false},
		{"duplicate tokens collapse", "a,a,b", "a,b", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, answersMatch(tc.student, tc.correct))
		})
	}
}
