package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

// --- mock item service ---

type mockItemService struct {
	createItemFn  func(input services.CreateItemInput) (*models.Item, error)
	getItemByIDFn func(id string) (*models.Item, error)
	listItemsFn   func(filter services.ItemFilter) ([]models.Item, error)
	updateItemFn  func(id string, input services.UpdateItemInput) (*models.Item, error)
	moveItemFn    func(id string, newParentID *string) (*models.Item, error)
	deleteItemFn  func(id string) error
	getSubtreeFn  func(id string) ([]models.Item, error)
}

func (m *mockItemService) CreateItem(input services.CreateItemInput) (*models.Item, error) {
	if m.createItemFn != nil {
		return m.createItemFn(input)
	}
	return &models.Item{}, nil
}

func (m *mockItemService) GetItemByID(id string) (*models.Item, error) {
	if m.getItemByIDFn != nil {
		return m.getItemByIDFn(id)
	}
	return &models.Item{}, nil
}

func (m *mockItemService) ListItems(filter services.ItemFilter) ([]models.Item, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(filter)
	}
	return []models.Item{}, nil
}

func (m *mockItemService) UpdateItem(id string, input services.UpdateItemInput) (*models.Item, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(id, input)
	}
	return &models.Item{}, nil
}

func (m *mockItemService) MoveItem(id string, newParentID *string) (*models.Item, error) {
	if m.moveItemFn != nil {
		return m.moveItemFn(id, newParentID)
	}
	return &models.Item{}, nil
}

func (m *mockItemService) DeleteItem(id string) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(id)
	}
	return nil
}

func (m *mockItemService) GetSubtree(id string) ([]models.Item, error) {
	if m.getSubtreeFn != nil {
		return m.getSubtreeFn(id)
	}
	return []models.Item{}, nil
}

var _ services.ItemServicer = (*mockItemService)(nil)

func setupItemRouter(handler *ItemHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor))
	auth.POST("/items", handler.CreateItem)
	auth.GET("/items", handler.ListItems)
	auth.GET("/items/:id", handler.GetItem)
	auth.GET("/items/:id/subtree", handler.GetSubtree)
	auth.PATCH("/items/:id", handler.UpdateItem)
	auth.PATCH("/items/:id/move", handler.MoveItem)
	auth.DELETE("/items/:id", handler.DeleteItem)
	return r
}

func TestItemHandler_CreateItem(t *testing.T) {
	t.Run("returns 201 and forwards targets", func(t *testing.T) {
		var captured services.CreateItemInput
		svc := &mockItemService{
			createItemFn: func(input services.CreateItemInput) (*models.Item, error) {
				captured = input
				total := input.UnitAmount.Mul(decimal.NewFromInt(int64(*input.TargetFrequency)))
				return &models.Item{
					Base:        models.Base{ID: "item-1"},
					CategoryID:  input.CategoryID,
					ParentID:    input.ParentID,
					Code:        input.Code,
					Name:        input.Name,
					Level:       3,
					Order:       1,
					TotalTarget: &total,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupItemRouter(NewItemHandler(svc, audit))

		rec := doRequest(r, "POST", "/items",
			`{"categoryId":"cat-1","parentId":"item-0","code":"A.1.1","name":"Honorarium","targetFrequency":12,"unitAmount":"20550000"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.ParentID == nil || *captured.ParentID != "item-0" {
			t.Errorf("expected parentId item-0, got %v", captured.ParentID)
		}
		if captured.UnitAmount == nil || !captured.UnitAmount.Equal(decimal.NewFromInt(20550000)) {
			t.Errorf("unexpected unitAmount %v", captured.UnitAmount)
		}
		if captured.Order != nil {
			t.Errorf("expected no explicit order, got %d", *captured.Order)
		}
		item := data(t, parseJSON(t, rec))
		if item["totalTarget"] != "246600000" {
			t.Errorf("expected totalTarget 246600000, got %v", item["totalTarget"])
		}
		audit.assertLogged(t, "CREATE_ITEM", "item-1")
	})

	t.Run("returns 400 on malformed code", func(t *testing.T) {
		r := setupItemRouter(NewItemHandler(&mockItemService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/items", `{"categoryId":"cat-1","code":"A..1","name":"X"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on negative unit amount", func(t *testing.T) {
		r := setupItemRouter(NewItemHandler(&mockItemService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/items", `{"categoryId":"cat-1","code":"A","name":"X","unitAmount":"-5"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on zero order", func(t *testing.T) {
		r := setupItemRouter(NewItemHandler(&mockItemService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/items", `{"categoryId":"cat-1","code":"A","name":"X","order":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps depth violation", func(t *testing.T) {
		svc := &mockItemService{
			createItemFn: func(_ services.CreateItemInput) (*models.Item, error) {
				return nil, apperrors.ErrItemTooDeep
			},
		}
		r := setupItemRouter(NewItemHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/items", `{"categoryId":"cat-1","parentId":"deep","code":"A","name":"X"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ITEM_TOO_DEEP")
	})
}

func TestItemHandler_ListItems(t *testing.T) {
	var captured services.ItemFilter
	svc := &mockItemService{
		listItemsFn: func(filter services.ItemFilter) ([]models.Item, error) {
			captured = filter
			return []models.Item{{Code: "A"}}, nil
		},
	}
	r := setupItemRouter(NewItemHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/items?periodId=p-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.PeriodID == nil || *captured.PeriodID != "p-1" || captured.CategoryID != nil {
		t.Errorf("unexpected filter %+v", captured)
	}
}

func TestItemHandler_GetSubtree(t *testing.T) {
	svc := &mockItemService{
		getSubtreeFn: func(id string) ([]models.Item, error) {
			return []models.Item{{Base: models.Base{ID: id}, Code: "A"}, {Code: "A.1"}, {Code: "A.1.1"}}, nil
		},
	}
	r := setupItemRouter(NewItemHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/items/item-1/subtree", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	nodes := parseJSON(t, rec)["data"].([]interface{})
	if len(nodes) != 3 || nodes[0].(map[string]interface{})["code"] != "A" {
		t.Errorf("unexpected subtree %v", nodes)
	}
}

func TestItemHandler_UpdateItem(t *testing.T) {
	t.Run("translates clear list into flags", func(t *testing.T) {
		var captured services.UpdateItemInput
		svc := &mockItemService{
			updateItemFn: func(id string, input services.UpdateItemInput) (*models.Item, error) {
				captured = input
				return &models.Item{Base: models.Base{ID: id}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupItemRouter(NewItemHandler(svc, audit))

		rec := doRequest(r, "PATCH", "/items/item-1", `{"order":2,"clear":["unitAmount","unitLabel"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Order == nil || *captured.Order != 2 {
			t.Errorf("expected order 2, got %v", captured.Order)
		}
		if !captured.ClearUnitAmount || !captured.ClearUnitLabel || captured.ClearTargetFrequency {
			t.Errorf("unexpected clear flags %+v", captured)
		}
		audit.assertLogged(t, "UPDATE_ITEM", "item-1")
	})

	t.Run("rejects unknown clear field", func(t *testing.T) {
		r := setupItemRouter(NewItemHandler(&mockItemService{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/items/item-1", `{"clear":["code"]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestItemHandler_MoveItem(t *testing.T) {
	t.Run("null parent moves to root", func(t *testing.T) {
		called := false
		svc := &mockItemService{
			moveItemFn: func(id string, newParentID *string) (*models.Item, error) {
				called = true
				if newParentID != nil {
					t.Errorf("expected nil parent, got %s", *newParentID)
				}
				return &models.Item{Base: models.Base{ID: id}, Level: 1}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupItemRouter(NewItemHandler(svc, audit))

		rec := doRequest(r, "PATCH", "/items/item-1/move", `{"parentId":null}`)

		if rec.Code != http.StatusOK || !called {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		audit.assertLogged(t, "MOVE_ITEM", "item-1")
	})

	t.Run("returns 400 on cycle", func(t *testing.T) {
		svc := &mockItemService{
			moveItemFn: func(_ string, _ *string) (*models.Item, error) {
				return nil, apperrors.ErrItemCycle
			},
		}
		r := setupItemRouter(NewItemHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/items/item-1/move", `{"parentId":"item-2"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ITEM_CYCLE")
	})
}

func TestItemHandler_DeleteItem(t *testing.T) {
	svc := &mockItemService{
		deleteItemFn: func(_ string) error { return apperrors.ErrItemHasDependents },
	}
	audit := &mockAuditService{}
	r := setupItemRouter(NewItemHandler(svc, audit))

	rec := doRequest(r, "DELETE", "/items/item-1", "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "ITEM_HAS_DEPENDENTS")
	audit.assertNothingLogged(t)
}
