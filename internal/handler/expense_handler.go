package handler

import (
	"net/http"

	"split-service/internal/models"
	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpense godoc
// @Summary      Record an expense
// @Description  For a direct (two-party) group the friend gate applies:
// @Description  every participant must resolve to a mutual friend of the
// @Description  acting account. Group expenses are open to co-members.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.CreateExpenseRequest true "expense"
// @Success      201 {object} models.ExpenseResponse
// @Router       /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), actingAccount(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, models.ExpenseResponse{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		Description: expense.Description,
		Amount:      expense.Amount,
		PaidByID:    expense.PaidByID,
		Splits:      expense.Splits,
	})
}

// ListGroupExpenses godoc
// @Summary      List a group's expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "group id"
// @Success      200 {array} models.ExpenseResponse
// @Router       /groups/{id}/expenses [get]
func (h *ExpenseHandler) ListGroupExpenses(c *gin.Context) {
	expenses, err := h.expenseService.ListGroupExpenses(c.Request.Context(), actingAccount(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expenses)
}
