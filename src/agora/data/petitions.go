package data

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opencivic/agora/src/agora/types"
)

// CreatePetition validates and stores a new petition. Status is always
// Active at birth; callers cannot pick another initial state.
func CreatePetition(db *gorm.DB, p *types.Petition) error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
		return types.ErrValidation
	}
	if p.SignatureGoal == 0 {
		return types.ErrValidation
	}
	p.Status = types.StatusActive
	return db.Create(p).Error
}

func GetPetition(db *gorm.DB, id uint64) (types.Petition, error) {
	var p types.Petition
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return p, types.ErrNotFound
		}
		return p, err
	}
	return p, nil
}

// ListPetitions filters by any non-empty criterion.
func ListPetitions(db *gorm.DB, category, location, status string) ([]types.Petition, error) {
	q := db.Order("created_at desc, id desc")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []types.Petition
	err := q.Find(&out).Error
	if out == nil {
		out = []types.Petition{}
	}
	return out, err
}

// UpdatePetition applies author edits to the mutable fields.
func UpdatePetition(db *gorm.DB, id uint64, title, description, category, location string, goal uint32) (types.Petition, error) {
	updates := map[string]any{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if category != "" {
		updates["category"] = category
	}
	if location != "" {
		updates["location"] = location
	}
	if goal > 0 {
		updates["signature_goal"] = goal
	}
	if len(updates) > 0 {
		if err := db.Model(&types.Petition{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return types.Petition{}, err
		}
	}
	return GetPetition(db, id)
}

// DeletePetition removes the petition aggregate: comment votes, comments,
// signatures, then the petition row itself.
func DeletePetition(db *gorm.DB, id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint64
		if err := tx.Model(&types.Comment{}).Where("petition_id = ?", id).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&types.CommentVote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("petition_id = ?", id).Delete(&types.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("petition_id = ?", id).Delete(&types.Signature{}).Error; err != nil {
			return err
		}
		return tx.Delete(&types.Petition{}, "id = ?", id).Error
	})
}

// Sign registers a signature. The insert relies on the (petition_id, user_id)
// primary key: a duplicate signer changes no rows, so two racing signs cannot
// lose each other and the second caller sees Conflict. No whole-aggregate
// read-modify-write happens here.
func Sign(db *gorm.DB, petitionID, userID uint64) (types.Petition, error) {
	p, err := GetPetition(db, petitionID)
	if err != nil {
		return p, err
	}
	if p.AuthorID == userID {
		return p, types.ErrSelfSign
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&types.Signature{
		PetitionID: petitionID,
		UserID:     userID,
		CreatedAt:  time.Now(),
	})
	if res.Error != nil {
		return p, res.Error
	}
	if res.RowsAffected == 0 {
		return p, types.ErrConflict
	}
	return p, nil
}

// SignatureList returns signer ids, newest first.
func SignatureList(db *gorm.DB, petitionID uint64) ([]uint64, error) {
	var ids []uint64
	err := db.Model(&types.Signature{}).Where("petition_id = ?", petitionID).
		Order("created_at desc, user_id desc").Pluck("user_id", &ids).Error
	if ids == nil {
		ids = []uint64{}
	}
	return ids, err
}

// AddComment appends a top-level comment to the petition.
func AddComment(db *gorm.DB, petitionID, userID uint64, body string) (types.Petition, types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Petition{}, types.Comment{}, types.ErrValidation
	}
	p, err := GetPetition(db, petitionID)
	if err != nil {
		return p, types.Comment{}, err
	}
	cm := types.Comment{PetitionID: petitionID, UserID: userID, Body: body}
	if err := db.Create(&cm).Error; err != nil {
		return p, cm, err
	}
	return p, cm, nil
}

// AddReply appends a reply under parentID. The parent may itself be a reply;
// depth is not limited here.
func AddReply(db *gorm.DB, petitionID, parentID, userID uint64, body string) (types.Petition, types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Petition{}, types.Comment{}, types.ErrValidation
	}
	p, err := GetPetition(db, petitionID)
	if err != nil {
		return p, types.Comment{}, err
	}
	var parent types.Comment
	if err := db.First(&parent, "id = ? AND petition_id = ?", parentID, petitionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return p, types.Comment{}, types.ErrNotFound
		}
		return p, types.Comment{}, err
	}
	cm := types.Comment{PetitionID: petitionID, ParentID: &parent.ID, UserID: userID, Body: body}
	if err := db.Create(&cm).Error; err != nil {
		return p, cm, err
	}
	return p, cm, nil
}

// ToggleCommentVote records userID's up/down vote on a comment. The single
// (comment_id, user_id) row is upserted with the new direction, which at once
// clears any prior vote and sets the new one; re-voting the same direction is
// a no-op in effect.
func ToggleCommentVote(db *gorm.DB, petitionID, commentID, userID uint64, direction types.VoteDirection) error {
	if !direction.Valid() {
		return types.ErrValidation
	}
	if _, err := GetPetition(db, petitionID); err != nil {
		return err
	}
	var cm types.Comment
	if err := db.First(&cm, "id = ? AND petition_id = ?", commentID, petitionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return types.ErrNotFound
		}
		return err
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
	}).Create(&types.CommentVote{
		CommentID: commentID,
		UserID:    userID,
		Direction: direction,
		UpdatedAt: time.Now(),
	}).Error
}

// ChangeStatus applies an officer-driven status transition.
func ChangeStatus(db *gorm.DB, petitionID uint64, to types.PetitionStatus) (types.Petition, error) {
	if !to.Valid() {
		return types.Petition{}, types.ErrValidation
	}
	p, err := GetPetition(db, petitionID)
	if err != nil {
		return p, err
	}
	if !types.CanTransition(p.Status, to) {
		return p, types.ErrInvalidTransition
	}
	if err := db.Model(&types.Petition{}).Where("id = ?", petitionID).
		Update("status", to).Error; err != nil {
		return p, err
	}
	p.Status = to
	return p, nil
}

// CommentRows returns a petition's comments in insertion order together with
// every vote row touching them.
func CommentRows(db *gorm.DB, petitionID uint64) ([]types.Comment, []types.CommentVote, error) {
	var rows []types.Comment
	if err := db.Where("petition_id = ?", petitionID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return rows, nil, nil
	}
	ids := make([]uint64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var votes []types.CommentVote
	if err := db.Where("comment_id IN ?", ids).Find(&votes).Error; err != nil {
		return rows, nil, err
	}
	return rows, votes, nil
}
