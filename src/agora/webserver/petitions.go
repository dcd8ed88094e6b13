package webserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/policy"
	"github.com/opencivic/agora/src/agora/types"
)

type Petitions struct {
	db        *gorm.DB
	emitter   *data.Emitter
	sanitizer *bluemonday.Policy
}

func NewPetitions(db *gorm.DB, emitter *data.Emitter) Petitions {
	// Strict policy; petition and comment bodies are plain text with basic
	// formatting, nothing executable survives.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	return Petitions{db: db, emitter: emitter, sanitizer: sanitizer}
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"msg": "resource not found"})
		return 0, false
	}
	return id, true
}

func (h Petitions) Create(c *gin.Context) {
	var req struct {
		Title         string `json:"title" binding:"required,max=255"`
		Description   string `json:"description" binding:"required,max=10000"`
		Category      string `json:"category" binding:"max=64"`
		Location      string `json:"location" binding:"max=128"`
		SignatureGoal uint32 `json:"signatureGoal" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user := currentUser(c)
	p := types.Petition{
		AuthorID:      user.ID,
		Title:         h.sanitizer.Sanitize(req.Title),
		Description:   h.sanitizer.Sanitize(req.Description),
		Category:      req.Category,
		Location:      req.Location,
		SignatureGoal: req.SignatureGoal,
	}
	if err := data.CreatePetition(h.db, &p); err != nil {
		fail(c, err)
		return
	}
	view, err := data.LoadPetitionView(h.db, p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h Petitions) List(c *gin.Context) {
	list, err := data.ListPetitions(h.db, c.Query("category"), c.Query("location"), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Petitions) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := data.LoadPetitionView(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Petitions) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title         string `json:"title" binding:"max=255"`
		Description   string `json:"description" binding:"max=10000"`
		Category      string `json:"category" binding:"max=64"`
		Location      string `json:"location" binding:"max=128"`
		SignatureGoal uint32 `json:"signatureGoal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	p, err := data.GetPetition(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !policy.CanEditPetition(currentUser(c), p) {
		fail(c, types.ErrForbidden)
		return
	}

	updated, err := data.UpdatePetition(h.db, id,
		h.sanitizer.Sanitize(req.Title), h.sanitizer.Sanitize(req.Description),
		req.Category, req.Location, req.SignatureGoal)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h Petitions) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := data.GetPetition(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !policy.CanDeletePetition(currentUser(c), p) {
		fail(c, types.ErrForbidden)
		return
	}
	if err := data.DeletePetition(h.db, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "petition deleted"})
}

func (h Petitions) Sign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	p, err := data.Sign(h.db, id, user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), p.AuthorID,
		fmt.Sprintf("%s signed your petition %q", user.Name, p.Title),
		fmt.Sprintf("/petitions/%d", p.ID))

	view, err := data.LoadPetitionView(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Petitions) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	if _, err := data.GetPetition(h.db, id); err != nil {
		fail(c, err)
		return
	}
	if !policy.CanChangePetitionStatus(currentUser(c)) {
		fail(c, types.ErrForbidden)
		return
	}

	p, err := data.ChangeStatus(h.db, id, types.PetitionStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), p.AuthorID,
		fmt.Sprintf("Your petition %q is now %s", p.Title, p.Status),
		fmt.Sprintf("/petitions/%d", p.ID))

	view, err := data.LoadPetitionView(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
