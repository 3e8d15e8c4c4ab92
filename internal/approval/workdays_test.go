package approval_test

import (
	"testing"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/approval"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWorkingDays(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		selected []string
		want     int
	}{
		{"full monday to friday week", "2026-03-02", "2026-03-06", nil, 5},
		{"range spanning a weekend", "2026-03-05", "2026-03-10", nil, 4},
		{"single weekday", "2026-03-04", "2026-03-04", nil, 1},
		{"weekend only", "2026-03-07", "2026-03-08", nil, 0},
		{"two full weeks", "2026-03-02", "2026-03-13", nil, 10},
		{"selected dates win over the range", "2026-03-02", "2026-03-13", []string{"2026-03-03", "2026-03-10"}, 2},
		{"selected weekend entries do not count", "2026-03-02", "2026-03-09", []string{"2026-03-06", "2026-03-07", "2026-03-08", "2026-03-09"}, 2},
		{"unparseable selected entry is skipped", "2026-03-02", "2026-03-06", []string{"2026-03-03", "bogus"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := approval.WorkingDays(day(tt.from), day(tt.to), approval.DateList(tt.selected))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequiredRoles(t *testing.T) {
	tests := []struct {
		role string
		want []string
	}{
		{"employee", []string{"hr", "dept_head", "admin"}},
		{"hr", []string{"hr", "dept_head", "admin"}},
		{"dept_head", []string{"hr", "admin"}},
		{"admin", []string{"hr", "admin"}},
		{"unknown", []string{"hr", "dept_head", "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, approval.RequiredRoles(tt.role))
		})
	}
}
