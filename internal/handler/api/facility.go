package api

import (
	"net/http"
	"strconv"

	"parking-reservation/internal/domain/facility"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/handler/httperr"
	"parking-reservation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type FacilityHandler struct {
	q queries.FacilityQueries
}

func NewFacilityHandler(q queries.FacilityQueries) *FacilityHandler {
	return &FacilityHandler{q: q}
}

// @Summary List facilities
// @Description Facilities in catalog order with live availability
// @Tags facilities
// @Produce json
// @Param city query string false "City filter, case-insensitive"
// @Param selectable query bool false "Only facilities with a free unit"
// @Success 200 {object} resdto.FacilityListResponse
// @Failure 400 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	selectable := false
	if v := c.Query("selectable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid selectable flag", nil)
			return
		}
		selectable = b
	}
	views, err := h.q.List(c.Request.Context(), c.Query("city"), selectable)
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Failed to list facilities", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromFacilityViews(views))
}

// @Summary Get facility
// @Tags facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} queries.FacilityView
// @Failure 404 {object} httperr.Response
// @Router /facilities/{id} [get]
func (h *FacilityHandler) Get(c *gin.Context) {
	view, err := h.q.Get(c.Request.Context(), facility.ID(c.Param("id")))
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Facility not found", nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary List cities
// @Description Cities offered by the facility city filter
// @Tags facilities
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /cities [get]
func (h *FacilityHandler) Cities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": facility.KnownCities})
}
