package models

// GroupNone is the sentinel group id carried by legacy rows that were
// imported without a group.
const GroupNone = "no group"

// PairedID is an identifier plus an optional human-readable label, the
// canonical form of the "qq（nickname）" wire text.
type PairedID struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname,omitempty"`
}

// TableRow is one moderation record as the log store serves it: paired
// fields in their combined "qq（nickname）" text form, images keyed by their
// 1-based display position.
type TableRow struct {
	ID         int64          `json:"id"`
	Target     string         `json:"target"`
	Mode       string         `json:"mode"`
	Reason     string         `json:"reason"`
	GroupID    string         `json:"group_id"`
	Duration   string         `json:"duration,omitempty"`
	Operator   string         `json:"operator"`
	Time       string         `json:"time"`
	ImagePaths map[int]string `json:"images_path,omitempty"`
}

// SubmittedImages partitions the edit surface's image list by origin. Both
// maps are keyed by 1-based display position so ordering survives the round
// trip through the transport.
type SubmittedImages struct {
	Inline map[int]string `json:"data_url"`
	Stored map[int]string `json:"static"`
}

// Submission is a transport-ready record packed from the edit surface.
// ID zero means the record is being created.
type Submission struct {
	ID       int64           `json:"id"`
	Target   PairedID        `json:"target"`
	Mode     string          `json:"mode"`
	Reason   string          `json:"reason"`
	Group    PairedID        `json:"group"`
	Duration string          `json:"duration,omitempty"`
	Operator PairedID        `json:"operator"`
	Time     string          `json:"time"`
	Images   SubmittedImages `json:"images"`
}

// IsNew reports whether the submission creates a record rather than editing
// an existing one.
func (s *Submission) IsNew() bool {
	return s.ID == 0
}
