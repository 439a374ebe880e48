package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
	"budgetbook/internal/services"
)

// --- mock transfer service ---

type mockTransferService struct {
	createTransferFn      func(userID, budgetID string, transferType models.TransferType, in services.TransferInput) (*models.Transfer, error)
	getBudgetTransfersFn  func(userID, budgetID string, page pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error)
	getTransferByIDFn     func(userID, budgetID, transferID string) (*models.Transfer, error)
	updateTransferFn      func(userID, budgetID, transferID string, in services.TransferInput) (*models.Transfer, error)
	deleteTransferFn      func(userID, budgetID, transferID string) error
	bulkDeleteTransfersFn func(userID, budgetID string, ids []string) error
	copyTransfersFn       func(userID, budgetID string, ids []string) ([]string, error)
}

func (m *mockTransferService) CreateTransfer(userID, budgetID string, transferType models.TransferType, in services.TransferInput) (*models.Transfer, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(userID, budgetID, transferType, in)
	}
	return &models.Transfer{}, nil
}

func (m *mockTransferService) GetBudgetTransfers(userID, budgetID string, page pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
	if m.getBudgetTransfersFn != nil {
		return m.getBudgetTransfersFn(userID, budgetID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transfer{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransferService) GetTransferByID(userID, budgetID, transferID string) (*models.Transfer, error) {
	if m.getTransferByIDFn != nil {
		return m.getTransferByIDFn(userID, budgetID, transferID)
	}
	return &models.Transfer{}, nil
}

func (m *mockTransferService) UpdateTransfer(userID, budgetID, transferID string, in services.TransferInput) (*models.Transfer, error) {
	if m.updateTransferFn != nil {
		return m.updateTransferFn(userID, budgetID, transferID, in)
	}
	return &models.Transfer{}, nil
}

func (m *mockTransferService) DeleteTransfer(userID, budgetID, transferID string) error {
	if m.deleteTransferFn != nil {
		return m.deleteTransferFn(userID, budgetID, transferID)
	}
	return nil
}

func (m *mockTransferService) BulkDeleteTransfers(userID, budgetID string, ids []string) error {
	if m.bulkDeleteTransfersFn != nil {
		return m.bulkDeleteTransfersFn(userID, budgetID, ids)
	}
	return nil
}

func (m *mockTransferService) CopyTransfers(userID, budgetID string, ids []string) ([]string, error) {
	if m.copyTransfersFn != nil {
		return m.copyTransfersFn(userID, budgetID, ids)
	}
	return nil, nil
}

var _ services.TransferServicer = (*mockTransferService)(nil)

const (
	testTransferID  = "018f3a2b-0000-7000-8000-000000000006"
	testTransfer2ID = "018f3a2b-0000-7000-8000-000000000007"
)

const validTransferBody = `{
	"name": "Weekly shopping",
	"value": 4550,
	"date": "2024-09-14T00:00:00Z",
	"transfer_type": "expense",
	"period_id": "018f3a2b-0000-7000-8000-000000000003",
	"entity_id": "018f3a2b-0000-7000-8000-000000000004",
	"deposit_id": "018f3a2b-0000-7000-8000-000000000008",
	"category_id": "018f3a2b-0000-7000-8000-000000000005"
}`

func setupTransferRouter(handler *TransferHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets/:budget_id/transfers", handler.CreateTransfer)
	auth.GET("/budgets/:budget_id/transfers", handler.GetTransfers)
	auth.DELETE("/budgets/:budget_id/transfers/bulk_delete", handler.BulkDeleteTransfers)
	auth.POST("/budgets/:budget_id/transfers/copy", handler.CopyTransfers)
	auth.GET("/budgets/:budget_id/transfers/:transfer_id", handler.GetTransfer)
	auth.PUT("/budgets/:budget_id/transfers/:transfer_id", handler.UpdateTransfer)
	auth.DELETE("/budgets/:budget_id/transfers/:transfer_id", handler.DeleteTransfer)
	return r
}

func TestTransferHandler_CreateTransfer(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockTransferService{
			createTransferFn: func(_, budgetID string, transferType models.TransferType, in services.TransferInput) (*models.Transfer, error) {
				return &models.Transfer{
					Base:         models.Base{ID: testTransferID},
					BudgetID:     budgetID,
					Name:         in.Name,
					Value:        in.Value,
					TransferType: transferType,
				}, nil
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers", validTransferBody)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transfer := result["transfer"].(map[string]interface{})
		if transfer["name"] != "Weekly shopping" {
			t.Errorf("expected Weekly shopping, got %v", transfer["name"])
		}
		if transfer["value"].(float64) != 4550 {
			t.Errorf("expected value 4550, got %v", transfer["value"])
		}
		if transfer["transfer_type"] != "expense" {
			t.Errorf("expected expense, got %v", transfer["transfer_type"])
		}
	})

	t.Run("returns 400 on non-positive value", func(t *testing.T) {
		handler := NewTransferHandler(&mockTransferService{}, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"name":"Bad","value":0,"date":"2024-09-14T00:00:00Z","transfer_type":"expense","period_id":"018f3a2b-0000-7000-8000-000000000003","entity_id":"018f3a2b-0000-7000-8000-000000000004","deposit_id":"018f3a2b-0000-7000-8000-000000000008","category_id":"018f3a2b-0000-7000-8000-000000000005"}`
		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unknown transfer type", func(t *testing.T) {
		handler := NewTransferHandler(&mockTransferService{}, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"name":"Bad","value":100,"date":"2024-09-14T00:00:00Z","transfer_type":"loan","period_id":"018f3a2b-0000-7000-8000-000000000003","entity_id":"018f3a2b-0000-7000-8000-000000000004","deposit_id":"018f3a2b-0000-7000-8000-000000000008","category_id":"018f3a2b-0000-7000-8000-000000000005"}`
		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 when the date is outside the period", func(t *testing.T) {
		svc := &mockTransferService{
			createTransferFn: func(_, _ string, _ models.TransferType, _ services.TransferInput) (*models.Transfer, error) {
				return nil, apperrors.ErrDateNotInPeriod
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers", validTransferBody)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DATE_NOT_IN_PERIOD")
	})
}

func TestTransferHandler_GetTransfers(t *testing.T) {
	t.Run("passes date bounds to the service", func(t *testing.T) {
		var gotFilter services.TransferFilter
		svc := &mockTransferService{
			getBudgetTransfersFn: func(_, _ string, _ pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transfer{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/transfers?date_after=2024-09-01T00:00:00Z&transfer_type=income", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.DateAfter == nil {
			t.Fatal("expected DateAfter filter to be set")
		}
		if gotFilter.TransferType == nil || *gotFilter.TransferType != models.TransferTypeIncome {
			t.Errorf("expected income type filter, got %v", gotFilter.TransferType)
		}
	})

	t.Run("returns 400 on malformed date filter", func(t *testing.T) {
		handler := NewTransferHandler(&mockTransferService{}, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/transfers?date_after=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_UpdateTransfer(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockTransferService{
			updateTransferFn: func(_, _, transferID string, in services.TransferInput) (*models.Transfer, error) {
				return &models.Transfer{Base: models.Base{ID: transferID}, Name: in.Name, Value: in.Value}, nil
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID+"/transfers/"+testTransferID, validTransferBody)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 for a generated mirror leg", func(t *testing.T) {
		svc := &mockTransferService{
			updateTransferFn: func(_, _, _ string, _ services.TransferInput) (*models.Transfer, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Generated deposit transfers cannot be edited directly.")
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID+"/transfers/"+testTransferID, validTransferBody)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransferService{
			updateTransferFn: func(_, _, _ string, _ services.TransferInput) (*models.Transfer, error) {
				return nil, apperrors.ErrTransferNotFound
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID+"/transfers/"+testTransferID, validTransferBody)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_DeleteTransfer(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		handler := NewTransferHandler(&mockTransferService{}, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID+"/transfers/"+testTransferID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_BulkDeleteTransfers(t *testing.T) {
	t.Run("returns 204 and forwards all ids", func(t *testing.T) {
		var gotIDs []string
		svc := &mockTransferService{
			bulkDeleteTransfersFn: func(_, _ string, ids []string) error {
				gotIDs = ids
				return nil
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"objects_ids":["` + testTransferID + `","` + testTransfer2ID + `"]}`
		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID+"/transfers/bulk_delete", body)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotIDs) != 2 {
			t.Fatalf("expected 2 ids forwarded, got %d", len(gotIDs))
		}
	})

	t.Run("returns 400 on empty id list", func(t *testing.T) {
		handler := NewTransferHandler(&mockTransferService{}, &mockAuditService{})
		r := setupTransferRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID+"/transfers/bulk_delete", `{"objects_ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when any id is missing", func(t *testing.T) {
		svc := &mockTransferService{
			bulkDeleteTransfersFn: func(_, _ string, _ []string) error {
				return apperrors.ErrTransferNotFound
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"objects_ids":["` + testTransferID + `"]}`
		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID+"/transfers/bulk_delete", body)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_CopyTransfers(t *testing.T) {
	t.Run("returns 201 with new ids", func(t *testing.T) {
		svc := &mockTransferService{
			copyTransfersFn: func(_, _ string, ids []string) ([]string, error) {
				return []string{testTransfer2ID}, nil
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"objects_ids":["` + testTransferID + `"]}`
		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers/copy", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		newIDs := result["objects_ids"].([]interface{})
		if len(newIDs) != 1 || newIDs[0] != testTransfer2ID {
			t.Errorf("expected [%s], got %v", testTransfer2ID, newIDs)
		}
	})

	t.Run("returns 400 when copying into a closed period", func(t *testing.T) {
		svc := &mockTransferService{
			copyTransfersFn: func(_, _ string, _ []string) ([]string, error) {
				return nil, apperrors.ErrPeriodClosed
			},
		}
		handler := NewTransferHandler(svc, &mockAuditService{})
		r := setupTransferRouter(handler)

		body := `{"objects_ids":["` + testTransferID + `"]}`
		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/transfers/copy", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERIOD_CLOSED")
	})
}
