package schema_test

import (
	"testing"

	"github.com/huangsam/filepulse/schema"
	"github.com/stretchr/testify/assert"
)

func TestEnrichArchive(t *testing.T) {
	entries := []schema.ArchiveEntry{
		{Timestamp: 1700000100, Name: "b.pdf", Size: 2048},
		{Timestamp: 1700000000, Name: "a.pdf", Size: 10},
	}

	enriched := schema.EnrichArchive(entries)
	assert.Len(t, enriched, 2)
	assert.Equal(t, 1, enriched[0].Rank)
	assert.Equal(t, "2.0 KB", enriched[0].SizeLabel)
	assert.Equal(t, "b.pdf", enriched[0].Name)
	assert.Equal(t, 2, enriched[1].Rank)
	assert.Equal(t, "2023-11-14 22:15:00", enriched[0].Created)
}

func TestNewScheduleStatus(t *testing.T) {
	inactive := schema.NewScheduleStatus(schema.ScheduleSpec{}, "UTC", nil)
	assert.False(t, inactive.Active)
	assert.NotNil(t, inactive.Jobs)
	assert.Empty(t, inactive.Date)

	freq := schema.Weekly
	spec := schema.ScheduleSpec{Date: schema.StrPtr("2024-06-03"), Time: schema.StrPtr("09:15"), Frequency: &freq}
	active := schema.NewScheduleStatus(spec, "Asia/Kolkata", []schema.JobInfo{{ID: "report"}})
	assert.True(t, active.Active)
	assert.Equal(t, "2024-06-03", active.Date)
	assert.Equal(t, "09:15", active.Time)
	assert.Equal(t, schema.Weekly, active.Frequency)
	assert.Len(t, active.Jobs, 1)
}
