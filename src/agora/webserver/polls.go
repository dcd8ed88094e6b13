package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/policy"
	"github.com/opencivic/agora/src/agora/types"
)

type Polls struct {
	db *gorm.DB
}

func NewPolls(db *gorm.DB) Polls { return Polls{db: db} }

func (h Polls) Create(c *gin.Context) {
	var req struct {
		Title          string     `json:"title" binding:"required,max=255"`
		TargetLocation string     `json:"targetLocation" binding:"max=128"`
		Options        []string   `json:"options" binding:"required,min=2,max=5"`
		ClosedAt       *time.Time `json:"closedAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	p := types.Poll{
		CreatedBy:      user.ID,
		Title:          req.Title,
		TargetLocation: req.TargetLocation,
		ClosedAt:       req.ClosedAt,
	}
	if err := data.CreatePoll(h.db, &p, req.Options); err != nil {
		fail(c, err)
		return
	}
	view, err := data.LoadPollView(h.db, p.ID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h Polls) List(c *gin.Context) {
	list, err := data.ListPolls(h.db, c.Query("location"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Polls) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := data.LoadPollView(h.db, id, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Polls) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title          string     `json:"title" binding:"max=255"`
		TargetLocation string     `json:"targetLocation" binding:"max=128"`
		Options        []string   `json:"options"`
		ClosedAt       *time.Time `json:"closedAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	p, err := data.GetPoll(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	user := currentUser(c)
	if !policy.CanEditPoll(user, p) {
		fail(c, types.ErrForbidden)
		return
	}

	if _, err := data.EditPoll(h.db, id, req.Title, req.TargetLocation, req.ClosedAt, req.Options); err != nil {
		fail(c, err)
		return
	}
	view, err := data.LoadPollView(h.db, id, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Polls) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := data.GetPoll(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !policy.CanDeletePoll(currentUser(c), p) {
		fail(c, types.ErrForbidden)
		return
	}
	if err := data.DeletePoll(h.db, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "poll deleted"})
}

func (h Polls) Vote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		OptionIndex *int `json:"optionIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	if err := data.VotePoll(h.db, id, user.ID, *req.OptionIndex); err != nil {
		fail(c, err)
		return
	}
	view, err := data.LoadPollView(h.db, id, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
