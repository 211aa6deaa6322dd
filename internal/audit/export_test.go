package audit

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/khanghh/klms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	empID := "100"
	unknownID := "200"
	entries := []*model.AuditLog{
		{
			EmployeeID:    &empID,
			EventType:     EventForceLogout,
			EventCategory: model.CategoryAdmin,
			ResourceType:  ResourceSession,
			ResourceID:    "sess-1",
			Severity:      model.SeverityWarning,
			CreatedAt:     time.Date(2024, 3, 1, 20, 45, 10, 0, time.UTC),
		},
		{
			EventType:     EventEmployeeDeleted,
			EventCategory: model.CategoryAdmin,
			Severity:      model.SeverityWarning,
			CreatedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			EmployeeID:    &unknownID,
			EventType:     "note, with comma",
			EventCategory: model.CategorySystem,
			Severity:      model.SeverityInfo,
			CreatedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries, EmployeeCodes{"100": "EMP001"}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Timestamp (IST)", "Employee ID", "Event Type", "Category", "Resource", "Severity"}, records[0])
	assert.Equal(t, []string{"2024-03-02 02:15:10 IST", "EMP001", "force_logout", "admin", "session", "warning"}, records[1])
	assert.Equal(t, []string{"2024-03-01 05:30:00 IST", "System", "employee_deleted", "admin", "-", "warning"}, records[2])
	assert.Equal(t, "200", records[3][1])
	assert.Equal(t, "note, with comma", records[3][2])
}
