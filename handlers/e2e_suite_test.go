package handlers

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/hakikicode/SmartDesign/repository"
	"github.com/hakikicode/SmartDesign/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type E2ETestSuite struct {
	suite.Suite
	baseURL string
	server  *httptest.Server
	repo    *repository.UpdatesRepository
	hub     *websocket.Hub
}

func (s *E2ETestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(os.Setenv("APP_ENV", "test"))
}

// Each test gets an empty log.
func (s *E2ETestSuite) SetupTest() {
	s.repo = repository.NewUpdatesRepository()
	s.hub = websocket.NewHub()
	r, err := NewRouter(RouterDeps{Repo: s.repo, Hub: s.hub, MaxMessageLength: 32})
	s.Require().NoError(err)
	s.server = httptest.NewServer(r)
	s.baseURL = s.server.URL
}

func (s *E2ETestSuite) TearDownTest() {
	s.server.Close()
}

func (s *E2ETestSuite) TearDownSuite() {
	_ = os.Unsetenv("APP_ENV")
}

func TestE2ETestSuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
