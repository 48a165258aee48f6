//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/handler/api"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/tests/common/builder"
	"parking-reservation/tests/common/httptest"
	queriesmock "parking-reservation/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type FacilityHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockFacilityQueries
}

func (s *FacilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockFacilityQueries(s.mockCtrl)
	h := api.NewFacilityHandler(s.mockQueries)

	s.router.GET("/facilities", h.List)
	s.router.GET("/facilities/:id", h.Get)
	s.router.GET("/cities", h.Cities)
}

func TestFacilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(FacilityHandlerTestSuite))
}

func (s *FacilityHandlerTestSuite) TestList() {
	view := queries.NewFacilityView(builder.NewFacilityBuilder().BuildSnapshot(), "Ksh")

	tests := []struct {
		name           string
		url            string
		wantCity       string
		wantSelectable bool
	}{
		{"no filters", "/facilities", "", false},
		{"city filter", "/facilities?city=Nairobi", "Nairobi", false},
		{"selectable only", "/facilities?city=nairobi&selectable=true", "nairobi", true},
		{"selectable false", "/facilities?selectable=0", "", false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockQueries.EXPECT().List(gomock.Any(), tt.wantCity, tt.wantSelectable).
				Return([]*queries.FacilityView{view}, nil)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, tt.url, nil)

			var got resdto.FacilityListResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
			s.Equal(1, got.Total)
			s.Equal("CBD Parking Complex", got.Facilities[0].Name)
			s.Equal("60.00", got.Facilities[0].Rate)
			s.True(got.Facilities[0].Selectable)
		})
	}

	s.Run("error: bad selectable flag", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/facilities?selectable=maybe", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid selectable flag")
	})
}

func (s *FacilityHandlerTestSuite) TestGet() {
	s.Run("success", func() {
		snap := builder.NewFacilityBuilder().WithAvailable(0).BuildSnapshot()
		s.mockQueries.EXPECT().Get(gomock.Any(), facility.ID("cbd-parking-complex")).
			Return(queries.NewFacilityView(snap, "Ksh"), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/facilities/cbd-parking-complex", nil)

		var got queries.FacilityView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(0, got.Available)
		s.False(got.Selectable)
	})

	s.Run("error: unknown facility", func() {
		s.mockQueries.EXPECT().Get(gomock.Any(), facility.ID("nowhere")).Return(nil, errs.ErrFacilityNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/facilities/nowhere", nil)
		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "FacilityNotFound")
	})
}

func (s *FacilityHandlerTestSuite) TestCities() {
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/cities", nil)

	var got struct {
		Cities []string `json:"cities"`
	}
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
	s.Equal([]string{"Nairobi", "Mombasa", "Machakos", "Nakuru", "Kisumu"}, got.Cities)
}
