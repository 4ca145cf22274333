package service

import "testing"

func TestRoleStyle(t *testing.T) {
	tests := []struct {
		role     string
		expected string
	}{
		{"Batter", StyleBatting},
		{"Bowler", StyleBowling},
		{"All Rounder", StyleAllRound},
		{"Wicket Keeper", StyleKeeping},
		{"Player", StyleNeutral},
		{"", StyleNeutral},
		{"batter", StyleNeutral}, // roles are canonicalized upstream
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := RoleStyle(tt.role); got != tt.expected {
				t.Errorf("RoleStyle(%q) = %q, expected %q", tt.role, got, tt.expected)
			}
		})
	}
}
