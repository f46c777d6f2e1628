package dto

// RosterImportResponse reports a roster import
type RosterImportResponse struct {
	Created int `json:"created" example:"12"`
}

// AttendanceImportResult reports an attendance import.
// Skipped lists line numbers whose first field was blank, Unmatched lists
// attended indexes with no registration for the exam.
type AttendanceImportResult struct {
	Consumed       int      `json:"consumed" example:"30"`
	MarkedAttended int      `json:"markedAttended" example:"28"`
	MarkedAbsent   int      `json:"markedAbsent" example:"4"`
	Skipped        []int    `json:"skipped"`
	Unmatched      []string `json:"unmatched"`
}

// UserImportRowError describes one rejected row of a user import
type UserImportRowError struct {
	Row   int    `json:"row" example:"3"`
	Email string `json:"email,omitempty" example:"ana.petrova@university.edu"`
	Error string `json:"error" example:"studentIndex is required for STUDENT"`
}

// UserImportResult reports a user import
type UserImportResult struct {
	Created int                  `json:"created" example:"10"`
	Updated int                  `json:"updated" example:"2"`
	Errors  []UserImportRowError `json:"errors"`
}
