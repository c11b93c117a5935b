package models

// Object type tags from the host LMS catalog that the resolver special-cases.
const (
	TypeCourse          = "crs"
	TypeCourseReference = "crsr"
	TypeProgramme       = "prg"
	TypeAssessment      = "tst"
)

// TargetObject is one resolved reset target: a hierarchy reference plus the
// type tag of the object behind it.
type TargetObject struct {
	RefID int64  `json:"ref_id"`
	Type  string `json:"type"`
}

// ObjectDisplay is a presentation row for a selected object.
type ObjectDisplay struct {
	RefID int64  `json:"ref_id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}
