package gradecard

import "github.com/j1mk1m/gradecard-cmu-15251-s23/internal/record"

const (
	RosterSheetName  = "roster"
	rosterRangeWrite = RosterSheetName + "!A2:NP"

	ExportSheetName   = "export"
	exportRangeRead   = ExportSheetName + "!A3:NP"
	exportRangeWrite  = ExportSheetName + "!A3:E"
	exportRangeHeader = ExportSheetName + "!1:1"

	// DataSheetName is the card sub-sheet the data sync overwrites.
	DataSheetName = "Data"

	// stopSentinel ends variable selection in the export header row.
	stopSentinel = "STOP"

	// starThreshold is the score below which a configured alternate
	// question is consulted.
	starThreshold = 0.01

	// flushEvery bounds how many freshly provisioned card rows are held in
	// memory before being written back to the export sheet.
	flushEvery = 5
)

// Agent selects which card a batch operation touches.
type Agent string

const (
	AgentStudent Agent = "student"
	AgentTA      Agent = "ta"
)

// CardViews are the template sub-sheets propagated by the view sync.
var CardViews = []string{"Dashboard", "Scores"}

// CardSheets is the full ordered sub-sheet layout of every card store.
var CardSheets = []string{"Dashboard", "Scores", DataSheetName}

// ExportHeader defines the identity columns of the export sheet. Variable
// per-question columns follow it in the live sheet but are not part of the
// written record; rows are truncated to this width on write-back.
var ExportHeader = record.Header{"andrew_id", "email", "ssid", "_ssid", "last_updated"}

// RosterHeader is the fixed column layout of the registrar roster CSV.
var RosterHeader = record.Header{
	"Semester",
	"Course",
	"Section",
	"Lecture",
	"Mini",
	"Last Name",
	"Preferred/First Name",
	"MI",
	"Andrew ID",
	"Email",
	"College",
	"Department",
	"Major",
	"Class",
	"Graduation Semester",
	"Units",
	"Grade Option",
	"QPA Scale",
	"Mid-Semester Grade",
	"Primary Advisor",
	"Final Grade",
	"Default Grade",
	"Time Zone Code",
	"Time Zone Description",
	"Added By",
	"Added On",
	"Confirmed",
	"Waitlist Position",
	"Units Carried/Max Units",
	"Waitlisted By",
	"Waitlisted On",
	"Dropped By",
	"Dropped On",
	"Roster As Of Date",
}
