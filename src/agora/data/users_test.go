package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/agora/src/agora/types"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "ana", types.RoleCitizen)

	dup := types.User{Name: "other", Email: "ana@example.org", Password: "x"}
	assert.ErrorIs(t, CreateUser(db, &dup), types.ErrConflict)
}

func TestDeleteAccount_RemovesOwnedAggregates(t *testing.T) {
	db := openTestDB(t)
	leaver := seedUser(t, db, "ana", types.RoleCitizen)
	signer := seedUser(t, db, "bo", types.RoleCitizen)

	petition := seedPetition(t, db, leaver)
	poll := seedPoll(t, db, leaver)
	_, err := Sign(db, petition.ID, signer.ID)
	require.NoError(t, err)
	require.NoError(t, VotePoll(db, poll.ID, signer.ID, 0))

	require.NoError(t, DeleteAccount(db, leaver.ID))

	_, err = GetUser(db, leaver.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = GetPetition(db, petition.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = GetPoll(db, poll.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Embedded rows of the removed aggregates are gone too.
	var n int64
	db.Model(&types.Signature{}).Where("petition_id = ?", petition.ID).Count(&n)
	assert.Zero(t, n)
	db.Model(&types.PollVoter{}).Where("poll_id = ?", poll.ID).Count(&n)
	assert.Zero(t, n)
}

func TestDeleteAccount_StripsMembershipsElsewhere(t *testing.T) {
	db := openTestDB(t)
	leaver := seedUser(t, db, "ana", types.RoleCitizen)
	owner := seedUser(t, db, "bo", types.RoleCitizen)

	petition := seedPetition(t, db, owner)
	poll := seedPoll(t, db, owner)
	_, err := Sign(db, petition.ID, leaver.ID)
	require.NoError(t, err)
	require.NoError(t, VotePoll(db, poll.ID, leaver.ID, 0))

	_, cm, err := AddComment(db, petition.ID, owner.ID, "c")
	require.NoError(t, err)
	require.NoError(t, ToggleCommentVote(db, petition.ID, cm.ID, leaver.ID, types.VoteUp))

	require.NoError(t, DeleteAccount(db, leaver.ID))

	// Other users' aggregates survive with the leaver's memberships stripped.
	ids, err := SignatureList(db, petition.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	voted, err := HasVoted(db, poll.ID, leaver.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	rows, votes, err := CommentRows(db, petition.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Empty(t, votes)

	// Tallies are not decremented when voter rows are stripped: the ballot's
	// chosen option was never recorded per voter.
	opts, err := PollOptions(db, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), opts[0].Votes)
}

func TestDeleteAccount_RemovesNotifications(t *testing.T) {
	db := openTestDB(t)
	leaver := seedUser(t, db, "ana", types.RoleCitizen)

	emitter := NewEmitter(db, nil)
	emitter.Emit(context.Background(), leaver.ID, "hello", "")

	list, err := Notifications(db, leaver.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, DeleteAccount(db, leaver.ID))
	list, err = Notifications(db, leaver.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotifications_MarkRead(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "ana", types.RoleCitizen)

	emitter := NewEmitter(db, nil)
	emitter.Emit(context.Background(), user.ID, "signed", "/petitions/1")
	emitter.Emit(context.Background(), user.ID, "commented", "/petitions/1")

	list, err := Notifications(db, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsRead)

	updated, err := MarkRead(db, list[0].ID)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)

	_, err = GetNotification(db, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
