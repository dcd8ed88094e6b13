// Package comments assembles a petition's flat comment rows into the nested
// reply tree the API serves, and locates nodes inside it.
package comments

import (
	"time"

	"github.com/opencivic/agora/src/agora/types"
)

// Node is one comment or reply. Vote membership is exposed as the two user-id
// sets themselves; displayed counts are their lengths, so count and content
// cannot drift apart.
type Node struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user"`
	UserName  string    `json:"userName,omitempty"`
	Body      string    `json:"text"`
	CreatedAt time.Time `json:"date"`
	UpVotes   []uint64  `json:"upVote"`
	DownVotes []uint64  `json:"downVote"`
	Replies   []*Node   `json:"reply"`
}

// Build turns comment rows into the reply tree. Rows must be ordered by id
// ascending; since ids are assigned in insertion order this both keeps
// children chronological and guarantees a parent is seen before its replies.
// A row whose parent is missing (pruned elsewhere) is kept as a top-level
// comment rather than dropped.
func Build(rows []types.Comment, votes []types.CommentVote, names map[uint64]string) []*Node {
	index := make(map[uint64]*Node, len(rows))
	var roots []*Node

	for _, row := range rows {
		n := &Node{
			ID:        row.ID,
			UserID:    row.UserID,
			UserName:  names[row.UserID],
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
			UpVotes:   []uint64{},
			DownVotes: []uint64{},
			Replies:   []*Node{},
		}
		index[row.ID] = n

		if row.ParentID != nil {
			if parent, ok := index[*row.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	for _, v := range votes {
		n, ok := index[v.CommentID]
		if !ok {
			continue
		}
		switch v.Direction {
		case types.VoteUp:
			n.UpVotes = append(n.UpVotes, v.UserID)
		case types.VoteDown:
			n.DownVotes = append(n.DownVotes, v.UserID)
		}
	}

	if roots == nil {
		roots = []*Node{}
	}
	return roots
}

// FindByID walks the tree depth first with an explicit stack; nesting depth
// is user-controlled, so no recursion. Returns nil when no node matches.
func FindByID(roots []*Node, id uint64) *Node {
	stack := make([]*Node, len(roots))
	copy(stack, roots)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id {
			return n
		}
		// Push replies in reverse so the search visits them in order.
		for i := len(n.Replies) - 1; i >= 0; i-- {
			stack = append(stack, n.Replies[i])
		}
	}
	return nil
}
