package data

import (
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/types"
)

// CreateUser stores a new account. Email uniqueness is backed by the index;
// the pre-check keeps the common case on the Conflict path instead of a
// driver error.
func CreateUser(db *gorm.DB, u *types.User) error {
	var n int64
	if err := db.Model(&types.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return types.ErrConflict
	}
	return db.Create(u).Error
}

func GetUser(db *gorm.DB, id uint64) (types.User, error) {
	var u types.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return u, types.ErrNotFound
		}
		return u, err
	}
	return u, nil
}

func GetUserByEmail(db *gorm.DB, email string) (types.User, error) {
	var u types.User
	if err := db.First(&u, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return u, types.ErrNotFound
		}
		return u, err
	}
	return u, nil
}

// UserNames resolves display names for the read-side projections.
func UserNames(db *gorm.DB, ids []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []types.User
	if err := db.Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// DeleteAccount removes the user and everything they own, and strips their
// membership from other users' aggregates. Poll option tallies are left
// untouched when voter rows are stripped: the model does not record which
// option a voter chose, so the count cannot be decremented honestly.
func DeleteAccount(db *gorm.DB, userID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var petitionIDs []uint64
		if err := tx.Model(&types.Petition{}).Where("author_id = ?", userID).
			Pluck("id", &petitionIDs).Error; err != nil {
			return err
		}
		for _, pid := range petitionIDs {
			if err := DeletePetition(tx, pid); err != nil {
				return err
			}
		}

		var pollIDs []uint64
		if err := tx.Model(&types.Poll{}).Where("created_by = ?", userID).
			Pluck("id", &pollIDs).Error; err != nil {
			return err
		}
		for _, pid := range pollIDs {
			if err := DeletePoll(tx, pid); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&types.Signature{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&types.PollVoter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&types.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&types.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&types.User{}, "id = ?", userID).Error
	})
}
