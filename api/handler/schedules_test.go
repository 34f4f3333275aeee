package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
)

type memStore struct {
	schedules map[string]*schedule.Schedule
}

func newMemStore() *memStore { return &memStore{schedules: map[string]*schedule.Schedule{}} }

func (m *memStore) List() ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, s := range m.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Get(id string) (*schedule.Schedule, error) { return m.schedules[id], nil }

func (m *memStore) Create(s *schedule.Schedule) (*schedule.Schedule, error) {
	s.ID = "generated-id"
	m.schedules[s.ID] = s
	return s, nil
}

func (m *memStore) Update(id string, patch *schedule.Schedule) (*schedule.Schedule, error) {
	if _, ok := m.schedules[id]; !ok {
		return nil, nil
	}
	patch.ID = id
	m.schedules[id] = patch
	return patch, nil
}

func (m *memStore) Delete(id string) (bool, error) {
	_, ok := m.schedules[id]
	delete(m.schedules, id)
	return ok, nil
}

func newJSONContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestCreateSchedule_Returns201(t *testing.T) {
	store := newMemStore()
	c, w := newJSONContext(http.MethodPost, "/api/schedules", `{"name":"morning","cron":"0 7 * * *"}`)
	CreateSchedule(store)(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
}

func TestCreateSchedule_InvalidBodyReturns400(t *testing.T) {
	store := newMemStore()
	c, w := newJSONContext(http.MethodPost, "/api/schedules", `not json`)
	CreateSchedule(store)(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateSchedule_MissingIDReturns404(t *testing.T) {
	store := newMemStore()
	c, w := newJSONContext(http.MethodPut, "/api/schedules/missing", `{"name":"x"}`)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	UpdateSchedule(store)(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteSchedule_FoundReturns200(t *testing.T) {
	store := newMemStore()
	store.schedules["a"] = &schedule.Schedule{ID: "a", Name: "a"}
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/schedules/a", nil)
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	DeleteSchedule(store)(c)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestDeleteSchedule_MissingReturns404(t *testing.T) {
	store := newMemStore()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/schedules/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	DeleteSchedule(store)(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSendSchedule_NotFoundReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/schedules/missing/send", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handlerFn := SendSchedule(func(c *gin.Context, id string) error {
		return models.New(models.KindNotFound, "schedule not found: "+id, nil)
	})
	handlerFn(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
