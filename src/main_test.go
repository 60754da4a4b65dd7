package main

import (
	"encoding/json"
	"fmt"
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/middlewares"
	"hbs/src/types"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

// testAuthMiddleware stands in for the real one so handler behavior can be
// exercised without a user row.
func testAuthMiddleware(ctx *gin.Context) {
	ctx.Set("id", uint(10))
	ctx.Set("email", "someone@example.com")
	ctx.Set("role", string(types.ROLE_USER))
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("reservabledate", reservableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
		v.RegisterValidation("ltdate", ltfield)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestReservationsRequireAuth() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	reservationRoutes(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestRegisterValidation() {
	router := setupRouter()
	guestAuthRoutes(router)

	w := httptest.NewRecorder()
	jbody := map[string]any{
		"email": "someone@example.com",
	}
	sbody, _ := json.Marshal(&jbody)
	req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	errMsg := gjson.Get(string(rbytes), "error").String()
	assert.NotEmpty(s.T(), errMsg)
}

func (s *TestSuite) TestReservationValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware)
	reservationRoutes(apiv1)

	s.Run("Should reject past check-in dates", func() {
		w := httptest.NewRecorder()
		body := types.CreateReservationRequestBody{
			PropertyID: 5,
			CheckIn:    time.Now().Add(-48 * time.Hour).Format(config.TIME_PARSE_FORMAT),
			CheckOut:   time.Now().Add(48 * time.Hour).Format(config.TIME_PARSE_FORMAT),
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject check-out before check-in", func() {
		w := httptest.NewRecorder()
		body := types.CreateReservationRequestBody{
			PropertyID: 5,
			CheckIn:    time.Now().Add(96 * time.Hour).Format(config.TIME_PARSE_FORMAT),
			CheckOut:   time.Now().Add(48 * time.Hour).Format(config.TIME_PARSE_FORMAT),
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a mismatched requester id", func() {
		w := httptest.NewRecorder()
		other := uint(99)
		body := types.CreateReservationRequestBody{
			PropertyID:  5,
			CheckIn:     time.Now().Add(48 * time.Hour).Format(config.TIME_PARSE_FORMAT),
			CheckOut:    time.Now().Add(96 * time.Hour).Format(config.TIME_PARSE_FORMAT),
			RequesterID: &other,
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
		rbody, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbody), "error").String()
		assert.Equal(s.T(), types.ErrForbidden.Error(), errMsg)
	})
}

func (s *TestSuite) TestMessageValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware)
	messageRoutes(apiv1)

	s.Run("Should reject an empty body", func() {
		w := httptest.NewRecorder()
		body := types.CreateMessageRequestBody{ReceiverID: 20}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/messages", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a mismatched sender id", func() {
		w := httptest.NewRecorder()
		other := uint(99)
		body := types.CreateMessageRequestBody{
			ReceiverID: 20,
			Body:       "hello",
			SenderID:   &other,
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/messages", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should reject a thread request without a peer", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/messages/thread", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an oversized body", func() {
		w := httptest.NewRecorder()
		body := types.CreateMessageRequestBody{
			ReceiverID: 20,
			Body:       strings.Repeat("a", 501),
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/messages", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestForbiddenTransitionReportsStatus() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware)
	reservationRoutes(apiv1)

	// Identity 10 is the requester; accepting is the owner's move.
	s.Mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "requester_id", "owner_id", "property_id", "status"}).
			AddRow(1, 10, 20, 5, "pending"))
	s.Mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "owner_id", "title", "available"}).
			AddRow(5, 20, "Seaside flat", true))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/reservations/1/accept", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 403, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	sjson := string(rbytes)
	assert.Equal(s.T(), types.ErrForbidden.Error(), gjson.Get(sjson, "error").String())
	assert.Equal(s.T(), "pending", gjson.Get(sjson, "status").String())
}

func (s *TestSuite) TestSupervisorOverrideForbiddenForUsers() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware)
	reservationRoutes(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/reservations/%d/approve", 1), nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 403, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
