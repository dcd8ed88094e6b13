package data

import (
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/comments"
	"github.com/opencivic/agora/src/agora/types"
)

// PetitionView is the populated petition the frontend consumes: author name
// joined in, signer set expanded, comment tree assembled with vote sets.
type PetitionView struct {
	types.Petition
	AuthorName     string           `json:"authorName"`
	Signatures     []uint64         `json:"signatures"`
	SignatureCount int              `json:"signatureCount"`
	Comments       []*comments.Node `json:"comments"`
}

// PollView is the populated poll: options with tallies, voter set, and
// whether the calling user has already voted.
type PollView struct {
	types.Poll
	CreatorName string             `json:"creatorName"`
	Options     []types.PollOption `json:"options"`
	Voters      []uint64           `json:"voters"`
	HasVoted    bool               `json:"hasVoted"`
}

// LoadPetitionView performs the read-side join for one petition. It runs
// after mutations commit, so it always reflects the stored aggregate.
func LoadPetitionView(db *gorm.DB, petitionID uint64) (PetitionView, error) {
	p, err := GetPetition(db, petitionID)
	if err != nil {
		return PetitionView{}, err
	}

	signatures, err := SignatureList(db, petitionID)
	if err != nil {
		return PetitionView{}, err
	}

	rows, votes, err := CommentRows(db, petitionID)
	if err != nil {
		return PetitionView{}, err
	}

	ids := []uint64{p.AuthorID}
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	names, err := UserNames(db, ids)
	if err != nil {
		return PetitionView{}, err
	}

	return PetitionView{
		Petition:       p,
		AuthorName:     names[p.AuthorID],
		Signatures:     signatures,
		SignatureCount: len(signatures),
		Comments:       comments.Build(rows, votes, names),
	}, nil
}

// LoadPollView performs the read-side join for one poll. callerID zero means
// anonymous; HasVoted is then false.
func LoadPollView(db *gorm.DB, pollID, callerID uint64) (PollView, error) {
	p, err := GetPoll(db, pollID)
	if err != nil {
		return PollView{}, err
	}
	opts, err := PollOptions(db, pollID)
	if err != nil {
		return PollView{}, err
	}
	var voters []uint64
	if err := db.Model(&types.PollVoter{}).Where("poll_id = ?", pollID).
		Order("created_at asc").Pluck("user_id", &voters).Error; err != nil {
		return PollView{}, err
	}
	if voters == nil {
		voters = []uint64{}
	}
	names, err := UserNames(db, []uint64{p.CreatedBy})
	if err != nil {
		return PollView{}, err
	}
	hasVoted := false
	if callerID != 0 {
		for _, v := range voters {
			if v == callerID {
				hasVoted = true
				break
			}
		}
	}
	return PollView{
		Poll:        p,
		CreatorName: names[p.CreatedBy],
		Options:     opts,
		Voters:      voters,
		HasVoted:    hasVoted,
	}, nil
}
