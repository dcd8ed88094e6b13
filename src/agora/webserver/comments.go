package webserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/agora/src/agora/comments"
	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/types"
)

func (h Petitions) AddComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	p, _, err := data.AddComment(h.db, id, user.ID, h.sanitizer.Sanitize(req.Text))
	if err != nil {
		fail(c, err)
		return
	}

	// Self-comments are silent.
	if p.AuthorID != user.ID {
		h.emitter.Emit(c.Request.Context(), p.AuthorID,
			fmt.Sprintf("%s commented on your petition %q", user.Name, p.Title),
			fmt.Sprintf("/petitions/%d", p.ID))
	}

	view, err := data.LoadPetitionView(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h Petitions) AddReply(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ParentCommentID uint64 `json:"parentCommentId" binding:"required"`
		Text            string `json:"text" binding:"required,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	_, _, err := data.AddReply(h.db, id, req.ParentCommentID, user.ID, h.sanitizer.Sanitize(req.Text))
	if err != nil {
		fail(c, err)
		return
	}

	view, err := data.LoadPetitionView(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// VoteComment toggles the caller's up/down vote and returns the single
// updated comment node, votes expanded.
func (h Petitions) VoteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CommentID uint64 `json:"commentId" binding:"required"`
		Type      string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	if err := data.ToggleCommentVote(h.db, id, req.CommentID, user.ID, types.VoteDirection(req.Type)); err != nil {
		fail(c, err)
		return
	}

	rows, votes, err := data.CommentRows(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	ids := make([]uint64, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	names, err := data.UserNames(h.db, ids)
	if err != nil {
		fail(c, err)
		return
	}
	node := comments.FindByID(comments.Build(rows, votes, names), req.CommentID)
	if node == nil {
		fail(c, types.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, node)
}
