package data

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opencivic/agora/src/agora/types"
)

const (
	minPollOptions = 2
	maxPollOptions = 5
)

// CreatePoll stores a poll with its option rows.
func CreatePoll(db *gorm.DB, p *types.Poll, optionTexts []string) error {
	if strings.TrimSpace(p.Title) == "" {
		return types.ErrValidation
	}
	if len(optionTexts) < minPollOptions || len(optionTexts) > maxPollOptions {
		return types.ErrValidation
	}
	for _, t := range optionTexts {
		if strings.TrimSpace(t) == "" {
			return types.ErrValidation
		}
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		for i, t := range optionTexts {
			opt := types.PollOption{PollID: p.ID, Position: uint8(i), Text: t}
			if err := tx.Create(&opt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func GetPoll(db *gorm.DB, id uint64) (types.Poll, error) {
	var p types.Poll
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return p, types.ErrNotFound
		}
		return p, err
	}
	return p, nil
}

func ListPolls(db *gorm.DB, location string) ([]types.Poll, error) {
	q := db.Order("created_at desc, id desc")
	if location != "" {
		q = q.Where("target_location = ?", location)
	}
	var out []types.Poll
	err := q.Find(&out).Error
	if out == nil {
		out = []types.Poll{}
	}
	return out, err
}

// PollOptions returns the option rows in display order.
func PollOptions(db *gorm.DB, pollID uint64) ([]types.PollOption, error) {
	var opts []types.PollOption
	err := db.Where("poll_id = ?", pollID).Order("position asc").Find(&opts).Error
	return opts, err
}

func HasVoted(db *gorm.DB, pollID, userID uint64) (bool, error) {
	var n int64
	err := db.Model(&types.PollVoter{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).Count(&n).Error
	return n > 0, err
}

// VotePoll casts userID's single ballot for the option at optionIndex. The
// voter-row insert carries the at-most-once guarantee (composite primary
// key); the tally moves by a relative `votes + 1` update in the same
// transaction, never by writing back a count read earlier.
func VotePoll(db *gorm.DB, pollID, userID uint64, optionIndex int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		p, err := GetPoll(tx, pollID)
		if err != nil {
			return err
		}
		if p.ClosedAt != nil && p.ClosedAt.Before(time.Now()) {
			return types.ErrValidation
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&types.PollVoter{
			PollID:    pollID,
			UserID:    userID,
			CreatedAt: time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrConflict
		}

		opts, err := PollOptions(tx, pollID)
		if err != nil {
			return err
		}
		if optionIndex < 0 || optionIndex >= len(opts) {
			// Rolls back the voter row recorded above.
			return types.ErrValidation
		}

		return tx.Model(&types.PollOption{}).Where("id = ?", opts[optionIndex].ID).
			Update("votes", gorm.Expr("votes + ?", 1)).Error
	})
}

// EditPoll applies creator/officer edits. Supplying newOptions replaces the
// option set and resets the voter register; a new option inherits the old
// tally only when its text matches a previous option verbatim. Renaming is
// indistinguishable from replacing, so a renamed option starts at zero.
func EditPoll(db *gorm.DB, pollID uint64, title, targetLocation string, closedAt *time.Time, newOptions []string) (types.Poll, error) {
	if newOptions != nil {
		if len(newOptions) < minPollOptions || len(newOptions) > maxPollOptions {
			return types.Poll{}, types.ErrValidation
		}
		for _, t := range newOptions {
			if strings.TrimSpace(t) == "" {
				return types.Poll{}, types.ErrValidation
			}
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetPoll(tx, pollID); err != nil {
			return err
		}

		updates := map[string]any{}
		if title != "" {
			updates["title"] = title
		}
		if targetLocation != "" {
			updates["target_location"] = targetLocation
		}
		if closedAt != nil {
			updates["closed_at"] = closedAt
		}
		if len(updates) > 0 {
			if err := tx.Model(&types.Poll{}).Where("id = ?", pollID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if newOptions == nil {
			return nil
		}

		old, err := PollOptions(tx, pollID)
		if err != nil {
			return err
		}
		carried := make(map[string]uint32, len(old))
		for _, o := range old {
			carried[o.Text] = o.Votes
		}

		if err := tx.Where("poll_id = ?", pollID).Delete(&types.PollOption{}).Error; err != nil {
			return err
		}
		for i, t := range newOptions {
			opt := types.PollOption{PollID: pollID, Position: uint8(i), Text: t, Votes: carried[t]}
			if err := tx.Create(&opt).Error; err != nil {
				return err
			}
		}
		// The option set changed; prior ballots no longer map onto it.
		return tx.Where("poll_id = ?", pollID).Delete(&types.PollVoter{}).Error
	})
	if err != nil {
		return types.Poll{}, err
	}
	return GetPoll(db, pollID)
}

// DeletePoll removes the poll aggregate: options, voters, poll row.
func DeletePoll(db *gorm.DB, id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", id).Delete(&types.PollOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", id).Delete(&types.PollVoter{}).Error; err != nil {
			return err
		}
		return tx.Delete(&types.Poll{}, "id = ?", id).Error
	})
}
