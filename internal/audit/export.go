package audit

import (
	"encoding/csv"
	"io"

	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"github.com/valyala/bytebufferpool"
)

const exportTimeLayout = "2006-01-02 15:04:05 IST"

var csvHeader = []string{"Timestamp (IST)", "Employee ID", "Event Type", "Category", "Resource", "Severity"}

// EmployeeCodes resolves internal employee ids to their external codes for export.
type EmployeeCodes map[string]string

func (c EmployeeCodes) label(employeeID *string) string {
	if employeeID == nil || *employeeID == "" {
		return "System"
	}
	if code, ok := c[*employeeID]; ok {
		return code
	}
	return *employeeID
}

func resource(entry *model.AuditLog) string {
	if entry.ResourceType == "" {
		return "-"
	}
	return entry.ResourceType
}

// WriteCSV renders entries as an operator-facing CSV document, one row per entry.
func WriteCSV(w io.Writer, entries []*model.AuditLog, codes EmployeeCodes) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		row := []string{
			entry.CreatedAt.In(params.ReportLocation).Format(exportTimeLayout),
			codes.label(entry.EmployeeID),
			entry.EventType,
			string(entry.EventCategory),
			resource(entry),
			string(entry.Severity),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
