//go:build unit

package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/handler/api"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/cookie"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"
	"mechanic-booking/tests/common/builder"
	"mechanic-booking/tests/common/httptest"
	commandsmock "mechanic-booking/tests/mock/commands"
	queriesmock "mechanic-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OperatorHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockOperatorCommands
	mockQueries  *queriesmock.MockReservationQueries
}

func (s *OperatorHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockOperatorCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	handler := api.NewOperatorHandler(s.mockCommands, s.mockQueries, newTestCalendar(s.T()), config.NewTestConfig().Cookie)

	// Stand-in for the operator auth middleware
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("operator", "mechanic")
		c.Next()
	}

	s.router.POST("/api/operator/login", handler.Login)
	s.router.POST("/api/operator/logout", handler.Logout)
	s.router.GET("/api/operator/reservations", authMiddleware, handler.List)
	s.router.GET("/api/operator/reservations/:id", authMiddleware, handler.Get)
	s.router.POST("/api/operator/reservations/:id/approve", authMiddleware, handler.Approve)
	s.router.POST("/api/operator/reservations/:id/cancel", authMiddleware, handler.Cancel)
	s.router.GET("/api/operator/reconciliations", authMiddleware, handler.Reconciliations)
}

func (s *OperatorHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestOperatorHandlerSuite(t *testing.T) {
	suite.Run(t, new(OperatorHandlerTestSuite))
}

// ================================================================================
// TestLogin / TestLogout
// ================================================================================

func (s *OperatorHandlerTestSuite) TestLogin() {
	url := "/api/operator/login"

	s.Run("success: sets the HttpOnly operator cookie", func() {
		expiresAt := time.Now().Add(time.Hour)
		s.mockCommands.EXPECT().Login(gomock.Any(), "mechanic", "password123").
			Return(&commands.LoginResult{AccessToken: "signed.jwt.token", ExpiresAt: expiresAt}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]string{"username": "mechanic", "password": "password123"}, "")

		var body map[string]any
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("signed.jwt.token", body["accessToken"])

		c := httptest.ExtractCookie(rec, cookie.AccessTokenCookieName)
		s.Require().NotNil(c)
		s.Equal("signed.jwt.token", c.Value)
		s.True(c.HttpOnly)
		s.Equal("/api/operator", c.Path)
		s.Equal(http.SameSiteLaxMode, c.SameSite)
	})

	s.Run("error: 401 on bad credentials", func() {
		s.mockCommands.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errs.ErrInvalidCredentials)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]string{"username": "mechanic", "password": "nope"}, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid username or password")
		s.Nil(httptest.ExtractCookie(rec, cookie.AccessTokenCookieName))
	})

	s.Run("error: 400 when password is missing", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]string{"username": "mechanic"}, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}

func (s *OperatorHandlerTestSuite) TestLogout() {
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/operator/logout", nil, "")

	s.Equal(http.StatusNoContent, rec.Code)
	c := httptest.ExtractCookie(rec, cookie.AccessTokenCookieName)
	s.Require().NotNil(c)
	s.Empty(c.Value)
	s.Less(c.MaxAge, 0)
}

// ================================================================================
// TestList
// ================================================================================

func (s *OperatorHandlerTestSuite) TestList() {
	s.Run("success: filters are decoded and the next cursor returned", func() {
		view := queries.NewOperatorReservationView(builder.NewReservationBuilder().
			AsWeekendRequest("Morning").WithStatus(reservation.StatusPendingWeekendApproval).BuildDomain())
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f queries.ListFilter) ([]*queries.OperatorReservationView, *queries.Cursor, error) {
				s.Require().NotNil(f.Status)
				s.Equal(reservation.StatusPendingWeekendApproval, *f.Status)
				s.Require().NotNil(f.DateFrom)
				s.Equal("2025-03-08", f.DateFrom.Format("2006-01-02"))
				s.Equal(5, f.Limit)
				s.Require().NotNil(f.After)
				s.Equal("abc", f.After.After)
				return []*queries.OperatorReservationView{view}, &queries.Cursor{After: "next-page"}, nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			"/api/operator/reservations?status=pending_weekend_approval&from=2025-03-08&limit=5&cursor=abc", nil, "token")

		var body struct {
			Items []struct {
				ID           uuid.UUID `json:"id"`
				Status       string    `json:"status"`
				CustomerName string    `json:"customerName"`
				Weekend      bool      `json:"weekend"`
			} `json:"items"`
			NextCursor string `json:"nextCursor"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Items, 1)
		s.Equal(view.ID, body.Items[0].ID)
		s.Equal("PENDING_WEEKEND_APPROVAL", body.Items[0].Status)
		s.Equal("Sam Lee", body.Items[0].CustomerName)
		s.True(body.Items[0].Weekend)
		s.Equal("next-page", body.NextCursor)
	})

	s.Run("error: 400 on an unknown status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations?status=lost", nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Validation failed")
	})

	s.Run("error: 400 on an out of range limit", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations?limit=500", nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid query")
	})

	s.Run("error: 400 on a corrupt cursor", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any()).
			Return(nil, nil, errs.Mark(queries.ErrInvalidCursor, errs.ErrValidation))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations?cursor=zzz", nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid cursor")
	})

	s.Run("error: 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations", nil, "")

		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// ================================================================================
// TestGet
// ================================================================================

func (s *OperatorHandlerTestSuite) TestGet() {
	s.Run("success: includes customer and payment details", func() {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), res.ID()).Return(queries.NewOperatorReservationView(res), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations/"+res.ID().String(), nil, "token")

		var body map[string]any
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("sam@example.com", body["customerEmail"])
		s.Equal("pi_test_123", body["paymentReference"])
		s.Equal(map[string]any{"symptoms": "Rough idle when cold", "warningLightsOn": true, "vehicleStarts": true}, body["details"])
	})

	s.Run("error: 400 on a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations/not-a-uuid", nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 404 on an unknown id", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, errs.ErrNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reservations/"+uuid.NewString(), nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})
}

// ================================================================================
// TestApprove / TestCancel
// ================================================================================

func (s *OperatorHandlerTestSuite) TestApprove() {
	approved := builder.NewReservationBuilder().AsWeekendRequest("Morning").WithStatus(reservation.StatusConfirmed).BuildDomain()
	url := "/api/operator/reservations/" + approved.ID().String() + "/approve"

	s.Run("success: approve without a body", func() {
		s.mockCommands.EXPECT().Approve(gomock.Any(), approved.ID(), nil).Return(approved, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")

		var body map[string]any
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("CONFIRMED", body["status"])
	})

	s.Run("success: pinned visit time is forwarded", func() {
		pinned := builder.Saturday.Add(10 * time.Hour)
		s.mockCommands.EXPECT().Approve(gomock.Any(), approved.ID(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, slotStart *time.Time) (*reservation.Reservation, error) {
				s.Require().NotNil(slotStart)
				s.True(slotStart.Equal(pinned))
				return approved, nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"slotStart": pinned.Format(time.RFC3339)}, "token")

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 409 when the reservation is not awaiting approval", func() {
		s.mockCommands.EXPECT().Approve(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("cannot approve HELD reservation"), errs.ErrInvalidTransition))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "cannot change to the requested status")
	})

	s.Run("error: 409 when the pinned time is taken", func() {
		s.mockCommands.EXPECT().Approve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errs.ErrSlotUnavailable)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"slotStart": builder.Saturday.Add(10 * time.Hour).Format(time.RFC3339)}, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "no longer available")
	})
}

func (s *OperatorHandlerTestSuite) TestCancel() {
	cancelled := builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
		b.CancelReason = "mechanic unwell"
	}).WithStatus(reservation.StatusCancelled).BuildDomain()
	url := "/api/operator/reservations/" + cancelled.ID().String() + "/cancel"

	s.Run("success: reason is forwarded", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), cancelled.ID(), "mechanic unwell").Return(cancelled, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]string{"reason": "mechanic unwell"}, "token")

		var body map[string]any
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("CANCELLED", body["status"])
		s.Equal("mechanic unwell", body["cancelReason"])
	})

	s.Run("error: 400 without a reason", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]string{}, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: 409 when already cancelled", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errs.ErrAlreadyCancelled)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]string{"reason": "again"}, "token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already cancelled")
	})
}

// ================================================================================
// TestReconciliations
// ================================================================================

func (s *OperatorHandlerTestSuite) TestReconciliations() {
	resID := uuid.New()
	alerts := []*queries.ReconciliationAlertView{{
		ID:            uuid.New(),
		ReservationID: &resID,
		Payload:       []byte(`{"reference":"MM-ABCDEFGH","status":"EXPIRED"}`),
		Status:        "completed",
		CreatedAt:     builder.BaseNow,
	}}
	s.mockQueries.EXPECT().ListReconciliationAlerts(gomock.Any(), 10).Return(alerts, nil)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/operator/reconciliations?limit=10", nil, "token")

	var body []map[string]any
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body, 1)
	s.Equal(resID.String(), body[0]["reservationId"])
	s.Equal(map[string]any{"reference": "MM-ABCDEFGH", "status": "EXPIRED"}, body[0]["payload"])
}
