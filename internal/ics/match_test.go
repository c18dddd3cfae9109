package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMomentTag(t *testing.T) {
	tests := []struct {
		summary string
		want    string
		ok      bool
	}{
		{"Moment: Ledig extra text", "Ledig", true},
		{"Kurs.grp: HD, Moment: ledig Lokal: NI:A0301", "ledig", true},
		{"Moment: Öppen", "Öppen", true},
		{"Moment: bokad, Lokal", "bokad", true},
		{"Föreläsning utan moment", "", false},
		{"Moment:Ledig", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MomentTag(tt.summary)
		assert.Equal(t, tt.ok, ok, tt.summary)
		assert.Equal(t, tt.want, got, tt.summary)
	}
}

func TestBookingID(t *testing.T) {
	tests := []struct {
		uid  string
		want string
		ok   bool
	}{
		{"BokningsId_123_456", "123_456", true},
		{"BokningsId_20240812_000000369", "20240812_000000369", true},
		{"prefix-BokningsId_1_2@example", "1_2", true},
		{"BokningsId_123", "", false},
		{"some-other-uid@example.com", "", false},
	}
	for _, tt := range tests {
		got, ok := BookingID(tt.uid)
		assert.Equal(t, tt.ok, ok, tt.uid)
		assert.Equal(t, tt.want, got, tt.uid)
	}
}
