package record

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

// pairedPattern splits the combined "12345（nickname）" wire text into digits
// and an optional parenthesized label. Both fullwidth and ASCII parentheses
// appear in historical rows.
var pairedPattern = regexp.MustCompile(`^(\d+)(?:\s*[（(](.+?)[）)])?$`)

// SplitPaired breaks a combined paired-field text into identifier and
// nickname. ok is false when the text is not in the canonical shape.
func SplitPaired(s string) (id, nickname string, ok bool) {
	m := pairedPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// JoinPaired recombines an identifier and nickname into the wire text,
// using the fullwidth parentheses the stored rows carry.
func JoinPaired(id, nickname string) string {
	if nickname == "" {
		return id
	}
	return id + "（" + nickname + "）"
}

// Unpack projects a stored row onto the edit surface. Paired fields are
// split, the duration is populated or blanked per the row's mode, and images
// expand into the ordered preview list. Required flags relax for fields a
// legacy row never carried; the operator stays required regardless.
func Unpack(row models.TableRow, ref *refdata.Config) *Form {
	f := &Form{}
	if row.ID != 0 {
		f.ID = strconv.FormatInt(row.ID, 10)
	}

	f.Target, f.TargetNickname = splitLoose(row.Target)
	f.TargetRequired = row.Target != ""

	if row.GroupID != "" && row.GroupID != models.GroupNone {
		f.Group, f.GroupNickname = splitLoose(row.GroupID)
		f.GroupRequired = true
	}

	f.Operator, f.OperatorNickname = splitLoose(row.Operator)

	f.Mode = row.Mode
	f.Reason = row.Reason
	f.Time = strings.Replace(row.Time, " ", "T", 1)

	if row.Mode == ref.MuteMode {
		f.Duration = row.Duration
		f.DurationRequired = true
		f.DurationEnabled = true
	}

	for _, pos := range sortedPositions(row.ImagePaths) {
		f.Images = append(f.Images, ImageItem{Path: row.ImagePaths[pos]})
	}
	f.ImagesRequired = row.ID == 0 || len(f.Images) > 0

	return f
}

// Pack serializes the edit surface into a transport-ready record. Images are
// partitioned by origin and keyed by their 1-based display position; the
// time value swaps the surface's "T" for the wire's single space separator.
func Pack(f *Form) *models.Submission {
	sub := &models.Submission{
		Target:   models.PairedID{ID: f.Target, Nickname: f.TargetNickname},
		Mode:     f.Mode,
		Reason:   f.Reason,
		Group:    models.PairedID{ID: f.Group, Nickname: f.GroupNickname},
		Operator: models.PairedID{ID: f.Operator, Nickname: f.OperatorNickname},
		Time:     strings.Replace(f.Time, "T", " ", 1),
		Images: models.SubmittedImages{
			Inline: make(map[int]string),
			Stored: make(map[int]string),
		},
	}
	if f.ID != "" {
		sub.ID, _ = strconv.ParseInt(f.ID, 10, 64)
	}
	if f.DurationEnabled {
		sub.Duration = f.Duration
	}
	for i, img := range f.Images {
		if img.Inline() {
			sub.Images.Inline[i+1] = img.DataURL
		} else {
			sub.Images.Stored[i+1] = img.Path
		}
	}
	return sub
}

// ComposeRow rebuilds the stored-row shape from a submission, recombining
// paired fields and keeping only already-stored image paths. Inline images
// get their paths once the media store has persisted them.
func ComposeRow(sub *models.Submission) models.TableRow {
	row := models.TableRow{
		ID:       sub.ID,
		Target:   JoinPaired(sub.Target.ID, sub.Target.Nickname),
		Mode:     sub.Mode,
		Reason:   sub.Reason,
		Duration: sub.Duration,
		Operator: JoinPaired(sub.Operator.ID, sub.Operator.Nickname),
		Time:     sub.Time,
	}
	if sub.Group.ID == "" {
		row.GroupID = models.GroupNone
	} else {
		row.GroupID = JoinPaired(sub.Group.ID, sub.Group.Nickname)
	}
	if len(sub.Images.Stored) > 0 {
		row.ImagePaths = make(map[int]string, len(sub.Images.Stored))
		for pos, path := range sub.Images.Stored {
			row.ImagePaths[pos] = path
		}
	}
	return row
}

// splitLoose splits a paired text, falling back to the raw text as the
// identifier when the canonical shape does not match.
func splitLoose(s string) (id, nickname string) {
	if s == "" {
		return "", ""
	}
	if qq, name, ok := SplitPaired(s); ok {
		return qq, name
	}
	return s, ""
}

func sortedPositions(paths map[int]string) []int {
	positions := make([]int, 0, len(paths))
	for pos := range paths {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}
