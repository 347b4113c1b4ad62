package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parallax/audit-backend/internal/model"
	"github.com/parallax/audit-backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mockAuditService: func-field stub
// ---------------------------------------------------------------------------

type mockAuditService struct {
	submitFunc  func(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error)
	listFunc    func(ctx context.Context, page, limit int) (*model.AuditRequestPage, error)
	getFunc     func(ctx context.Context, id string) (*model.AuditRequest, error)
	updateFunc  func(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error)
	deleteFunc  func(ctx context.Context, id string) (*model.AuditRequest, error)
	healthyFunc func(ctx context.Context) bool
}

func (m *mockAuditService) Submit(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return &model.AuditRequest{ID: "1", Name: req.Name, Email: req.Email, Company: req.Company}, model.StorePrimary, nil
}

func (m *mockAuditService) List(ctx context.Context, page, limit int) (*model.AuditRequestPage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, page, limit)
	}
	return &model.AuditRequestPage{Records: []*model.AuditRequest{}}, nil
}

func (m *mockAuditService) Get(ctx context.Context, id string) (*model.AuditRequest, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAuditService) Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAuditService) Delete(ctx context.Context, id string) (*model.AuditRequest, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAuditService) PrimaryHealthy(ctx context.Context) bool {
	if m.healthyFunc != nil {
		return m.healthyFunc(ctx)
	}
	return true
}

type recordingNotifier struct {
	mu   sync.Mutex
	recs []model.AuditRequest
}

func (n *recordingNotifier) NotifySubmission(rec model.AuditRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recs = append(n.recs, rec)
}

func (n *recordingNotifier) calls() []model.AuditRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.AuditRequest(nil), n.recs...)
}

// responseBody mirrors envelope with concrete data for decoding.
type responseBody struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     []map[string]any  `json:"errors"`
	Pagination *model.Pagination `json:"pagination"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var body responseBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body), "body: %s", rec.Body.String())
	return body
}

const validBody = `{"name":"Ada","email":"ADA@X.COM","company":"Acme","website":"https://acme.test","message":"hi"}`

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestAuditHandler_Submit_PassesNormalizedInput(t *testing.T) {
	var got model.NewAuditRequest
	svc := &mockAuditService{
		submitFunc: func(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
			got = req
			return &model.AuditRequest{ID: "abc", Name: req.Name, Email: req.Email, Company: req.Company, Website: req.Website}, model.StorePrimary, nil
		},
	}
	notifier := &recordingNotifier{}
	h := NewAuditHandler(svc, notifier)

	req := httptest.NewRequest("POST", "/api/audit", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ada@x.com", got.Email)

	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, msgSubmitted, body.Message)
	assert.JSONEq(t, `{"id":"abc","name":"Ada","email":"ada@x.com","company":"Acme"}`, string(body.Data))

	calls := notifier.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "abc", calls[0].ID)
}

func TestAuditHandler_Submit_ValidationErrors(t *testing.T) {
	svc := &mockAuditService{
		submitFunc: func(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
			t.Error("service must not be called for invalid input")
			return nil, "", nil
		},
	}
	notifier := &recordingNotifier{}
	h := NewAuditHandler(svc, notifier)

	req := httptest.NewRequest("POST", "/api/audit", strings.NewReader(`{"email":"nope","website":"ftp://x"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)

	var fields []string
	for _, e := range body.Errors {
		fields = append(fields, e["field"].(string))
		assert.NotEmpty(t, e["message"])
	}
	assert.Equal(t, []string{"name", "email", "company", "website", "message"}, fields)
	assert.Empty(t, notifier.calls())
}

func TestAuditHandler_Submit_InvalidJSON(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	req := httptest.NewRequest("POST", "/api/audit", strings.NewReader(`{"name":`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, msgInvalidJSON, body.Message)
}

func TestAuditHandler_Submit_RejectsTrailingData(t *testing.T) {
	svc := &mockAuditService{
		submitFunc: func(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
			t.Error("service must not be called when the body has trailing data")
			return nil, "", nil
		},
	}
	h := NewAuditHandler(svc, nil)

	for name, body := range map[string]string{
		"second object": validBody + validBody,
		"garbage":       validBody + ` x`,
		"array after":   validBody + `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Submit(rec, httptest.NewRequest("POST", "/api/audit", strings.NewReader(body)))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, msgInvalidJSON, decode(t, rec).Message)
		})
	}
}

func TestAuditHandler_Submit_AllowsTrailingWhitespace(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest("POST", "/api/audit", strings.NewReader(validBody+"\n\t ")))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuditHandler_Submit_StoreFailureIs500(t *testing.T) {
	svc := &mockAuditService{
		submitFunc: func(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
			return nil, model.StoreFallback, errors.New("disk full")
		},
	}
	notifier := &recordingNotifier{}
	h := NewAuditHandler(svc, notifier)

	req := httptest.NewRequest("POST", "/api/audit", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, msgInternal, body.Message)
	assert.NotContains(t, rec.Body.String(), "disk full")
	assert.Empty(t, notifier.calls())
}

// ---------------------------------------------------------------------------
// List / Get
// ---------------------------------------------------------------------------

func TestAuditHandler_List_ParsesQuery(t *testing.T) {
	cases := []struct {
		query             string
		wantPage, wantLim int
	}{
		{"?page=3&limit=25", 3, 25},
		{"", 0, 0},
		{"?page=abc&limit=x", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var gotPage, gotLimit int
			svc := &mockAuditService{
				listFunc: func(ctx context.Context, page, limit int) (*model.AuditRequestPage, error) {
					gotPage, gotLimit = page, limit
					return &model.AuditRequestPage{
						Records:    []*model.AuditRequest{},
						Pagination: model.NewPagination(1, 10, 0),
					}, nil
				},
			}
			h := NewAuditHandler(svc, nil)

			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest("GET", "/api/audit"+tc.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantPage, gotPage)
			assert.Equal(t, tc.wantLim, gotLimit)

			body := decode(t, rec)
			assert.JSONEq(t, `[]`, string(body.Data))
			require.NotNil(t, body.Pagination)
		})
	}
}

func TestAuditHandler_List_WithIDQueryGets(t *testing.T) {
	svc := &mockAuditService{
		getFunc: func(ctx context.Context, id string) (*model.AuditRequest, error) {
			return &model.AuditRequest{ID: id, Name: "Ada"}, nil
		},
		listFunc: func(ctx context.Context, page, limit int) (*model.AuditRequestPage, error) {
			t.Error("list must not run when ?id= is given")
			return nil, nil
		},
	}
	h := NewAuditHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/audit?id=xyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Nil(t, body.Pagination)
	var got model.AuditRequest
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, "xyz", got.ID)
}

func TestAuditHandler_Get_NotFound(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	req := httptest.NewRequest("GET", "/api/audit/ghost", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNotFound, decode(t, rec).Message)
}

func TestAuditHandler_Get_UnexpectedErrorIs500(t *testing.T) {
	svc := &mockAuditService{
		getFunc: func(ctx context.Context, id string) (*model.AuditRequest, error) {
			return nil, errors.New("corrupt fallback file")
		},
	}
	h := NewAuditHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/audit/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestAuditHandler_Update_MissingID(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	rec := httptest.NewRecorder()
	h.Update(rec, httptest.NewRequest("PATCH", "/api/audit", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgIDRequired, decode(t, rec).Message)
}

func TestAuditHandler_Update_InvalidStatus(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	req := httptest.NewRequest("PATCH", "/api/audit/1", strings.NewReader(`{"status":"archived"}`))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "status", body.Errors[0]["field"])
	assert.Equal(t, "invalid_status", body.Errors[0]["code"])
}

func TestAuditHandler_Update_RejectsTrailingData(t *testing.T) {
	svc := &mockAuditService{
		updateFunc: func(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
			t.Error("service must not be called when the body has trailing data")
			return nil, nil
		},
	}
	h := NewAuditHandler(svc, nil)

	req := httptest.NewRequest("PATCH", "/api/audit/1", strings.NewReader(`{"status":"reviewed"}{"status":"completed"}`))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidJSON, decode(t, rec).Message)
}

func TestAuditHandler_Update_PassesOnlySuppliedFields(t *testing.T) {
	var got model.AuditRequestPatch
	svc := &mockAuditService{
		updateFunc: func(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
			got = patch
			return &model.AuditRequest{ID: id, Status: model.StatusReviewed}, nil
		},
	}
	h := NewAuditHandler(svc, nil)

	req := httptest.NewRequest("PATCH", "/api/audit/1", strings.NewReader(`{"status":"Reviewed"}`))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, model.StatusReviewed, *got.Status)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.Email)
	assert.Equal(t, msgUpdated, decode(t, rec).Message)
}

func TestAuditHandler_Delete_QueryID(t *testing.T) {
	var gotID string
	svc := &mockAuditService{
		deleteFunc: func(ctx context.Context, id string) (*model.AuditRequest, error) {
			gotID = id
			return &model.AuditRequest{ID: id}, nil
		},
	}
	h := NewAuditHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest("DELETE", "/api/audit?id=42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", gotID)
	body := decode(t, rec)
	assert.Equal(t, msgDeleted, body.Message)
	assert.Contains(t, string(body.Data), `"id":"42"`)
}

func TestAuditHandler_Delete_NotFound(t *testing.T) {
	h := NewAuditHandler(&mockAuditService{}, nil)

	req := httptest.NewRequest("DELETE", "/api/audit/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
