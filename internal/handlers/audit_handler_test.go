package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

func setupAuditRouter(handler *AuditHandler) *gin.Engine {
	r := gin.New()
	r.GET("/service/audit_logs", handler.ListAuditLogs)
	return r
}

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	t.Run("returns a page of entries newest first", func(t *testing.T) {
		svc := &mockAuditService{
			recentFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
				logs := []models.AuditLog{
					{UserID: testUserID, Action: "DELETE_TRANSFER", ObjectType: "transfer", ObjectID: testTransferID},
					{UserID: testUserID, Action: "CREATE_BUDGET", ObjectType: "budget", ObjectID: testBudgetID},
				}
				result := pagination.NewPageResponse(logs, 1, 20, 2)
				return &result, nil
			},
		}
		handler := NewAuditHandler(svc)
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET", "/service/audit_logs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(data))
		}
		first := data[0].(map[string]interface{})
		if first["action"] != "DELETE_TRANSFER" {
			t.Errorf("expected DELETE_TRANSFER first, got %v", first["action"])
		}
		if result["total_items"].(float64) != 2 {
			t.Errorf("expected total_items 2, got %v", result["total_items"])
		}
	})

	t.Run("forwards paging params", func(t *testing.T) {
		var gotPage pagination.PageRequest
		svc := &mockAuditService{
			recentFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
				gotPage = page
				result := pagination.NewPageResponse([]models.AuditLog{}, page.Page, page.PageSize, 0)
				return &result, nil
			},
		}
		handler := NewAuditHandler(svc)
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET", "/service/audit_logs?page=3&page_size=50", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotPage.Page != 3 || gotPage.PageSize != 50 {
			t.Errorf("expected page 3 size 50, got %d/%d", gotPage.Page, gotPage.PageSize)
		}
	})
}
