package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
)

func classRequest(entries ...dto.AttendanceEntry) *dto.RecordAttendanceRequest {
	return &dto.RecordAttendanceRequest{
		CourseCode: "cs301",
		CourseName: "Operating Systems",
		Branch:     "CSE",
		Semester:   5,
		Section:    "a",
		ClassDate:  "2026-09-14",
		Entries:    entries,
	}
}

func TestAttendanceRecord_LastMarkWins(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewAttendanceService(repo, nopLogger())

	resp, err := svc.Record(context.Background(), classRequest(
		dto.AttendanceEntry{StudentRoll: "21cs001", StudentName: "Asha", Status: model.AttendanceAbsent},
		dto.AttendanceEntry{StudentRoll: "21CS002", StudentName: "Ravi", Status: model.AttendancePresent},
		dto.AttendanceEntry{StudentRoll: " 21CS001 ", StudentName: "Asha", Status: model.AttendanceLate},
	), facultyCaller)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if resp.Recorded != 2 {
		t.Errorf("expected 2 marks, got %d", resp.Recorded)
	}
	first := m.attendance.records[0]
	if first.StudentRoll != "21CS001" || first.Status != model.AttendanceLate {
		t.Errorf("duplicate roll should keep the last mark, got %+v", first)
	}
	if first.CourseCode != "CS301" || first.Section != "A" || first.RecordedBy != "fac-1" {
		t.Errorf("unexpected normalisation %+v", first)
	}

	if _, err := svc.Record(context.Background(), &dto.RecordAttendanceRequest{ClassDate: "14/09/2026"}, facultyCaller); err == nil {
		t.Error("bad class date should fail")
	}
}

func TestAttendanceList_StudentsSeeOwnMarks(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewAttendanceService(repo, nopLogger())
	ctx := context.Background()

	_, _ = svc.Record(ctx, classRequest(
		dto.AttendanceEntry{StudentRoll: "21CS001", StudentName: "Asha", Status: model.AttendancePresent},
		dto.AttendanceEntry{StudentRoll: "21CS002", StudentName: "Ravi", Status: model.AttendanceAbsent},
	), facultyCaller)

	roll := "21cs002"
	m.users.users[studentCaller.UserID] = &model.User{UserID: studentCaller.UserID, RollNumber: &roll}

	// a student asking for someone else's roll still gets only their own
	records, total, err := svc.List(ctx, &dto.AttendanceListRequest{}, studentCaller)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || records[0].StudentRoll != "21CS002" {
		t.Errorf("expected only 21CS002, got %+v", records)
	}

	if _, total, _ := svc.List(ctx, &dto.AttendanceListRequest{}, facultyCaller); total != 2 {
		t.Errorf("staff see every mark, got %d", total)
	}

	m.users.users["stu-3"] = &model.User{UserID: "stu-3"}
	if _, _, err := svc.List(ctx, &dto.AttendanceListRequest{}, Caller{UserID: "stu-3"}); !errors.Is(err, ErrNoRollNumber) {
		t.Errorf("expected ErrNoRollNumber, got %v", err)
	}
}

func TestAttendanceSummary_LateCountsAsAttended(t *testing.T) {
	repo, _ := newMockRepository()
	svc := NewAttendanceService(repo, nopLogger())
	ctx := context.Background()

	for i, status := range []string{model.AttendancePresent, model.AttendanceLate, model.AttendanceAbsent, model.AttendancePresent} {
		req := classRequest(dto.AttendanceEntry{StudentRoll: "21CS001", StudentName: "Asha", Status: status})
		req.ClassDate = time.Date(2026, 9, 14+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if _, err := svc.Record(ctx, req, facultyCaller); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := svc.Summary(ctx, &dto.AttendanceListRequest{}, adminCaller)
	if err != nil || len(rows) != 1 {
		t.Fatalf("Summary = %v, %v", rows, err)
	}
	if rows[0].Total != 4 || rows[0].Percentage != 75 {
		t.Errorf("expected 3 of 4 attended, got %+v", rows[0])
	}
}

func TestAttendanceExport(t *testing.T) {
	repo, _ := newMockRepository()
	svc := NewAttendanceService(repo, nopLogger()).(*attendanceService)
	svc.now = func() time.Time { return time.Date(2026, 9, 20, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, _ = svc.Record(ctx, classRequest(
		dto.AttendanceEntry{StudentRoll: "21CS001", StudentName: "Asha", Status: model.AttendancePresent},
	), facultyCaller)

	buf, name, err := svc.Export(ctx, &dto.AttendanceListRequest{Branch: "CSE", Semester: 5})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if name != "attendance_20260920.xlsx" {
		t.Errorf("unexpected file name %q", name)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "Marks" || got[1] != "Summary" {
		t.Errorf("unexpected sheets %v", got)
	}
	if v, _ := f.GetCellValue("Marks", "D3"); v != "21CS001" {
		t.Errorf("expected roll in D3, got %q", v)
	}
	if v, _ := f.GetCellValue("Marks", "A2"); v != "Date" {
		t.Errorf("expected header row 2, got %q", v)
	}
}
