package record

// Field names of the edit surface, in display order.
const (
	FieldID       = "id"
	FieldTarget   = "target"
	FieldMode     = "mode"
	FieldReason   = "reason"
	FieldGroup    = "group_id"
	FieldDuration = "duration"
	FieldOperator = "operator"
	FieldTime     = "time"
	FieldImage    = "image"
)

// FieldUpload is the pseudo-field that locks the form while a submission is
// in flight.
const FieldUpload = "upload"

// Fields lists every tracked field in display order.
var Fields = []string{
	FieldID,
	FieldTarget,
	FieldMode,
	FieldReason,
	FieldGroup,
	FieldDuration,
	FieldOperator,
	FieldTime,
	FieldImage,
}

// ImageItem is one entry of the ordered preview list. Exactly one of the two
// fields is set: DataURL for a freshly added image, Path for one already in
// storage.
type ImageItem struct {
	DataURL string
	Path    string
}

// Inline reports whether the image was freshly added in this session.
func (i ImageItem) Inline() bool {
	return i.DataURL != ""
}

// Form is the free-form edit surface: one raw value per field, the ordered
// image preview list, and the required/enabled flags the mode and record
// history impose.
type Form struct {
	ID               string
	Target           string
	TargetNickname   string
	Mode             string
	Reason           string
	Group            string
	GroupNickname    string
	Duration         string
	Operator         string
	OperatorNickname string
	Time             string // "2006-01-02T15:04:05", the surface's separator
	Images           []ImageItem

	// TargetRequired and GroupRequired relax for legacy records that never
	// carried the field. The operator is always required.
	TargetRequired   bool
	GroupRequired    bool
	DurationRequired bool
	DurationEnabled  bool
	ImagesRequired   bool
}

// NewForm returns the empty surface for creating a record: everything
// required except the duration, which stays disabled until the mode says
// otherwise.
func NewForm() *Form {
	return &Form{
		TargetRequired: true,
		GroupRequired:  true,
		ImagesRequired: true,
	}
}
