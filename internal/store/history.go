package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eliaskord/storyloom/internal/session"
)

var _ session.HistoryLog = (*HistoryRepo)(nil)

// HistoryRepo persists the per-story chapter path as an append-only log.
// Rows are only ever inserted; ordering comes from a serial sequence column.
type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (h *HistoryRepo) Append(ctx context.Context, storyID string, entry session.HistoryEntry) error {
	err := h.db.gorm.WithContext(ctx).Exec(
		`INSERT INTO story_history(id, story_id, chapter_id, title, selected_option_id) VALUES (?,?,?,?,?)`,
		uuid.New(), storyID, entry.ChapterID, entry.Title, entry.SelectedOptionID,
	).Error
	return errors.Wrapf(err, "append history for story %s", storyID)
}

func (h *HistoryRepo) List(ctx context.Context, storyID string) ([]session.HistoryEntry, error) {
	rows, err := h.db.gorm.WithContext(ctx).Raw(
		`SELECT chapter_id, title, selected_option_id FROM story_history WHERE story_id = ? ORDER BY seq ASC`,
		storyID,
	).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "list history for story %s", storyID)
	}
	defer rows.Close()
	var entries []session.HistoryEntry
	for rows.Next() {
		var e session.HistoryEntry
		if err := rows.Scan(&e.ChapterID, &e.Title, &e.SelectedOptionID); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
