package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
	"github.com/curator/console/internal/utils"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrOperatorShielded = errors.New("active operators cannot be targeted")
	ErrNoImages         = errors.New("a record needs at least one evidence image")
)

// MediaStore persists one inline evidence image and returns its serving path.
type MediaStore interface {
	StoreInline(ctx context.Context, recordID int64, pos int, dataURL string) (string, error)
}

type Service struct {
	db    *pgxpool.Pool
	redis *redis.Client
	ref   *refdata.Config
	media MediaStore
}

func NewService(db *pgxpool.Pool, redis *redis.Client, ref *refdata.Config, media MediaStore) *Service {
	return &Service{db: db, redis: redis, ref: ref, media: media}
}

// SaveResult is everything a save produces: the canonical row, whether it was
// created or edited, and the risk delta covering every affected target.
type SaveResult struct {
	Action string
	Row    models.TableRow
	Delta  models.RiskDelta
}

// ListResult is one page of records plus the risk profiles of every target
// in the table, so the console can render badges without a second fetch.
type ListResult struct {
	Rows       []models.TableRow
	Profiles   map[string]models.RiskProfile
	Pagination utils.Pagination
}

const riskCacheTTL = 10 * time.Minute

// List returns one page of records, newest first. Out-of-range pages clamp
// to the nearest valid page instead of failing.
func (s *Service) List(ctx context.Context, page, limit int) (*ListResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM mod_logs`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	maxPage := utils.MaxPage(total, limit)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, target, mode, reason, group_id, duration, operator, action_time, images
		FROM mod_logs
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	result := &ListResult{
		Pagination: utils.Pagination{Page: page, MaxPage: maxPage, Limit: limit, Total: total},
	}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Profiles, err = s.allProfiles(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheProfiles(ctx, result.Profiles)
	return result, nil
}

// Save persists a submission. A zero id creates a record; a non-zero id
// edits the one it names. Inline images are stored first, then the record
// is written with serving paths only.
func (s *Service) Save(ctx context.Context, sub *models.Submission) (*SaveResult, error) {
	if err := s.checkShield(sub); err != nil {
		return nil, err
	}
	if err := checkImages(sub); err != nil {
		return nil, err
	}

	if sub.IsNew() {
		return s.create(ctx, sub)
	}
	return s.edit(ctx, sub)
}

// Delete removes a record and returns the risk delta for its former target.
func (s *Service) Delete(ctx context.Context, id int64) (models.RiskDelta, error) {
	var target string
	err := s.db.QueryRow(ctx, `SELECT target FROM mod_logs WHERE id = $1`, id).Scan(&target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM mod_logs WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete record: %w", err)
	}

	delta, err := s.deltaFor(ctx, targetQQ(target))
	if err != nil {
		return nil, err
	}
	s.publishDelta(ctx, delta)
	return delta, nil
}

// --- internal helpers ---

func (s *Service) create(ctx context.Context, sub *models.Submission) (*SaveResult, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO mod_logs (target, mode, reason, group_id, duration, operator, action_time, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '{}'::jsonb)
		RETURNING id`,
		record.JoinPaired(sub.Target.ID, sub.Target.Nickname),
		sub.Mode, sub.Reason, groupColumn(sub), sub.Duration,
		record.JoinPaired(sub.Operator.ID, sub.Operator.Nickname), sub.Time,
	).Scan(&sub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	if err := s.storeImages(ctx, sub); err != nil {
		return nil, err
	}
	return s.finishSave(ctx, sub, "add", targetQQ(record.JoinPaired(sub.Target.ID, sub.Target.Nickname)))
}

func (s *Service) edit(ctx context.Context, sub *models.Submission) (*SaveResult, error) {
	var oldTarget string
	err := s.db.QueryRow(ctx, `SELECT target FROM mod_logs WHERE id = $1`, sub.ID).Scan(&oldTarget)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if err := s.storeImages(ctx, sub); err != nil {
		return nil, err
	}

	affected := []string{targetQQ(record.JoinPaired(sub.Target.ID, sub.Target.Nickname))}
	if old := targetQQ(oldTarget); old != "" && old != affected[0] {
		affected = append(affected, old)
	}
	return s.finishSave(ctx, sub, "edit", affected...)
}

// finishSave writes the canonical row, recomputes the affected profiles and
// publishes the delta.
func (s *Service) finishSave(ctx context.Context, sub *models.Submission, action string, affected ...string) (*SaveResult, error) {
	row := record.ComposeRow(sub)

	images, err := json.Marshal(row.ImagePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image paths: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		UPDATE mod_logs
		SET target = $1, mode = $2, reason = $3, group_id = $4, duration = $5,
		    operator = $6, action_time = $7, images = $8
		WHERE id = $9`,
		row.Target, row.Mode, row.Reason, row.GroupID, row.Duration,
		row.Operator, row.Time, images, row.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	delta, err := s.deltaFor(ctx, affected...)
	if err != nil {
		return nil, err
	}
	s.publishDelta(ctx, delta)
	return &SaveResult{Action: action, Row: row, Delta: delta}, nil
}

// storeImages uploads the inline images of a submission and folds the
// resulting paths into its stored set. Positions survive the trip.
func (s *Service) storeImages(ctx context.Context, sub *models.Submission) error {
	if len(sub.Images.Inline) == 0 {
		return nil
	}
	if sub.Images.Stored == nil {
		sub.Images.Stored = make(map[int]string, len(sub.Images.Inline))
	}
	for pos, dataURL := range sub.Images.Inline {
		path, err := s.media.StoreInline(ctx, sub.ID, pos, dataURL)
		if err != nil {
			return fmt.Errorf("failed to store image %d: %w", pos, err)
		}
		sub.Images.Stored[pos] = path
	}
	sub.Images.Inline = nil
	return nil
}

// checkImages enforces the creation-time evidence requirement. Edits may
// arrive without images: legacy rows imported before evidence was mandatory
// stay editable as they are.
func checkImages(sub *models.Submission) error {
	if sub.IsNew() && len(sub.Images.Inline)+len(sub.Images.Stored) == 0 {
		return ErrNoImages
	}
	return nil
}

// checkShield rejects punitive records whose target is an active operator.
func (s *Service) checkShield(sub *models.Submission) error {
	switch sub.Mode {
	case s.ref.MuteMode, s.ref.KickMode, s.ref.BanMode:
		if s.ref.IsActiveOperator(sub.Target.ID) {
			return ErrOperatorShielded
		}
	}
	return nil
}

// allProfiles computes the risk profile of every target in the table from
// its full history.
func (s *Service) allProfiles(ctx context.Context) (map[string]models.RiskProfile, error) {
	histories, err := s.histories(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]models.RiskProfile, len(histories))
	for qq, modes := range histories {
		profiles[qq] = computeProfile(modes, s.ref)
	}
	return profiles, nil
}

// deltaFor recomputes the profiles of the given targets. A target whose
// last record was just removed falls back to the default profile, so the
// console still patches its remaining rows consistently.
func (s *Service) deltaFor(ctx context.Context, targets ...string) (models.RiskDelta, error) {
	histories, err := s.histories(ctx)
	if err != nil {
		return nil, err
	}
	delta := make(models.RiskDelta, len(targets))
	for _, qq := range targets {
		if qq == "" {
			continue
		}
		if modes, ok := histories[qq]; ok {
			delta[qq] = computeProfile(modes, s.ref)
		} else {
			delta[qq] = models.DefaultRiskProfile()
		}
	}
	s.cacheProfiles(ctx, delta)
	return delta, nil
}

// histories loads every target's mode history, oldest record first.
func (s *Service) histories(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.Query(ctx, `SELECT target, mode FROM mod_logs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load record history: %w", err)
	}
	defer rows.Close()

	histories := make(map[string][]string)
	for rows.Next() {
		var target, mode string
		if err := rows.Scan(&target, &mode); err != nil {
			return nil, err
		}
		if qq := targetQQ(target); qq != "" {
			histories[qq] = append(histories[qq], mode)
		}
	}
	return histories, rows.Err()
}

// cacheProfiles mirrors computed profiles into Redis for the live feed.
// Cache trouble is logged, never fatal.
func (s *Service) cacheProfiles(ctx context.Context, profiles map[string]models.RiskProfile) {
	if len(profiles) == 0 {
		return
	}
	pipe := s.redis.Pipeline()
	for qq, profile := range profiles {
		data, err := json.Marshal(profile)
		if err != nil {
			continue
		}
		pipe.Set(ctx, "risk:"+qq, data, riskCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to cache risk profiles")
	}
}

// publishDelta pushes a risk delta onto the live channel so open consoles
// can patch their tables.
func (s *Service) publishDelta(ctx context.Context, delta models.RiskDelta) {
	if len(delta) == 0 {
		return
	}
	data, err := json.Marshal(delta)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal risk delta")
		return
	}
	if err := s.redis.Publish(ctx, "console:risk", data).Err(); err != nil {
		log.Error().Err(err).Msg("Failed to publish risk delta to Redis")
	}
}

func scanRow(rows pgx.Rows) (models.TableRow, error) {
	var row models.TableRow
	var images []byte
	err := rows.Scan(&row.ID, &row.Target, &row.Mode, &row.Reason, &row.GroupID,
		&row.Duration, &row.Operator, &row.Time, &images)
	if err != nil {
		return row, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &row.ImagePaths); err != nil {
			return row, fmt.Errorf("failed to decode image paths: %w", err)
		}
	}
	return row, nil
}

func groupColumn(sub *models.Submission) string {
	if sub.Group.ID == "" {
		return models.GroupNone
	}
	return record.JoinPaired(sub.Group.ID, sub.Group.Nickname)
}

func targetQQ(text string) string {
	qq, _, ok := record.SplitPaired(text)
	if !ok {
		return ""
	}
	return qq
}
