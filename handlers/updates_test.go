package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hakikicode/SmartDesign/pkg/events"
	"github.com/hakikicode/SmartDesign/types"

	gws "github.com/gorilla/websocket"
)

func (s *E2ETestSuite) post(path, body string) *http.Response {
	resp, err := http.Post(s.baseURL+path, "application/json", bytes.NewBufferString(body))
	s.Require().NoError(err)
	return resp
}

func (s *E2ETestSuite) list(query string) []types.UpdateItem {
	resp, err := http.Get(s.baseURL + "/updates" + query)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var items []types.UpdateItem
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func (s *E2ETestSuite) Test100_PostThenGet() {
	resp := s.post("/updates", `{"message":"hello"}`)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	var created map[string]any
	s.NoError(json.NewDecoder(resp.Body).Decode(&created))
	s.Equal(float64(1), created["id"])

	items := s.list("")
	s.Require().Len(items, 1)
	s.Equal(int64(1), items[0].ID)
	s.Equal("hello", items[0].Message)
	s.Equal("external", items[0].Origin)
	s.Equal("update", items[0].Kind)
	s.WithinDuration(time.Now(), items[0].CreatedAt, time.Minute)
}

func (s *E2ETestSuite) Test101_EmptyLogIsEmptyArray() {
	resp, err := http.Get(s.baseURL + "/updates")
	s.Require().NoError(err)
	defer resp.Body.Close()
	var raw bytes.Buffer
	_, _ = raw.ReadFrom(resp.Body)
	s.Equal("[]", strings.TrimSpace(raw.String()))
}

func (s *E2ETestSuite) Test102_RejectsMalformedPayloads() {
	cases := []string{
		`{}`,
		`{"message":42}`,
		`{"message":"   "}`,
		`{"message":"ok","kind":"poll"}`,
		`{"message":"` + strings.Repeat("x", 33) + `"}`,
		`not json`,
	}
	for _, body := range cases {
		resp := s.post("/updates", body)
		s.Equal(http.StatusBadRequest, resp.StatusCode, body)
		var env types.APIResponse
		s.NoError(json.NewDecoder(resp.Body).Decode(&env))
		resp.Body.Close()
		s.False(env.Success)
		s.Require().NotNil(env.Error)
		s.Equal(types.ErrorCodeValidation, env.Error.Code)
	}
	s.Equal(0, s.repo.Len())
}

func (s *E2ETestSuite) Test103_AdditionalFieldsIgnoredAndDuplicatesAppended() {
	for i := 0; i < 2; i++ {
		resp := s.post("/webhook", `{"message":"task assigned","source":"tracker","meta":{"a":1}}`)
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	items := s.list("")
	s.Require().Len(items, 2)
	s.Equal(int64(1), items[0].ID)
	s.Equal(int64(2), items[1].ID)
	s.Equal(items[0].Message, items[1].Message)
}

func (s *E2ETestSuite) Test104_EchoesCorrelationIDAndKind() {
	resp := s.post("/updates", `{"message":"nice","kind":"comment","correlationId":"c-42"}`)
	defer resp.Body.Close()
	var created types.IngestResponse
	s.NoError(json.NewDecoder(resp.Body).Decode(&created))
	s.Equal("c-42", created.CorrelationID)

	items := s.list("")
	s.Require().Len(items, 1)
	s.Equal("comment", items[0].Kind)
	s.Equal("c-42", items[0].CorrelationID)
}

func (s *E2ETestSuite) Test105_SinceReturnsSuffix() {
	for i := 1; i <= 5; i++ {
		resp := s.post("/updates", `{"message":"m`+strconv.Itoa(i)+`"}`)
		resp.Body.Close()
	}
	full := s.list("")
	s.Equal(full, s.list(""))
	for k := 0; k <= 5; k++ {
		got := s.list("?since=" + strconv.Itoa(k))
		s.Equal(full[k:], got)
	}
	s.Equal(full, s.list("?since=-3"))

	resp, err := http.Get(s.baseURL + "/updates?since=abc")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *E2ETestSuite) Test106_Health() {
	resp := s.post("/updates", `{"message":"one"}`)
	resp.Body.Close()
	resp, err := http.Get(s.baseURL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	var body map[string]any
	s.NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("ok", body["status"])
	s.Equal(float64(1), body["updates"])
	s.Equal(float64(1), body["lastId"])
}

func (s *E2ETestSuite) Test107_WebsocketReceivesAppendHint() {
	url := "ws" + strings.TrimPrefix(s.baseURL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	s.Eventually(func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp := s.post("/updates", `{"message":"ping"}`)
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.UpdateAppended
	s.Require().NoError(conn.ReadJSON(&ev))
	s.Equal(events.TypeUpdateAppended, ev.Type)
	s.Equal(int64(1), ev.ID)
}

func (s *E2ETestSuite) Test108_RequestIDPropagated() {
	req, _ := http.NewRequest(http.MethodGet, s.baseURL+"/updates", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal("abc-123", resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(s.baseURL + "/updates")
	s.Require().NoError(err)
	resp.Body.Close()
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
}

func (s *E2ETestSuite) Test109_MetricsExposed() {
	resp := s.post("/updates", `{"message":"counted"}`)
	resp.Body.Close()
	r, err := http.Get(s.baseURL + "/metrics")
	s.Require().NoError(err)
	defer r.Body.Close()
	var raw bytes.Buffer
	_, _ = raw.ReadFrom(r.Body)
	s.Contains(raw.String(), "collab_updates_ingested_total")
}
