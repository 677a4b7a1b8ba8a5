package handler

import (
	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/service"
	"net/http"
)

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransaction godoc
// @Summary      Create a transfer between two users
// @Description  Debits the sender immediately. Transfers above the auto-approval threshold are created pending and held in escrow until approved or rejected.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        transaction body model.CreateTransactionRequest true "Transfer details"
// @Success      201  {object}  handler.APIResponse{data=model.Transaction}
// @Failure      400  {object}  common.AppError "Bad Request (e.g., insufficient balance, invalid amount)"
// @Failure      404  {object}  common.AppError "Sender or receiver not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateTransactionRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	transaction, err := h.service.CreateTransaction(r.Context(), req)
	if err != nil {
		// Map specific business logic errors to appropriate HTTP status codes.
		switch err {
		case service.ErrUserNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrInsufficientBalance, service.ErrSameUserTransfer:
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not process transfer", err)
		}
	}

	respond(w, http.StatusCreated, transaction, "Transaction created successfully")
	return nil
}

// GetTransaction godoc
// @Summary      Get a transaction by id
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  handler.APIResponse{data=model.Transaction}
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	transaction, err := h.service.GetTransactionByID(r.Context(), r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrTransactionNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transaction", err)
		}
	}

	respond(w, http.StatusOK, transaction, "")
	return nil
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  Returns all transactions ordered by date descending. With userId, only transactions where that user is sender or receiver.
// @Tags         transactions
// @Produce      json
// @Param        userId query string false "Filter by user ID"
// @Success      200  {object}  handler.APIResponse{data=[]model.Transaction}
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	transactions, err := h.service.ListTransactions(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transactions", err)
	}

	respond(w, http.StatusOK, transactions, "")
	return nil
}

// ApproveTransaction godoc
// @Summary      Approve a pending transaction
// @Description  Confirms the transfer and credits the receiver. The sender was debited at creation.
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  handler.APIResponse{data=model.Transaction}
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      422  {object}  common.AppError "Transaction is not pending"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/transactions/{id}/approve [patch]
func (h *TransactionHandler) ApproveTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	transaction, err := h.service.ApproveTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrTransactionNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrOnlyPendingCanBeApproved:
			return common.NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not approve transaction", err)
		}
	}

	respond(w, http.StatusOK, transaction, "Transaction approved and processed successfully")
	return nil
}

// RejectTransaction godoc
// @Summary      Reject a pending transaction
// @Description  Rejects the transfer and returns the escrowed funds to the sender.
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  handler.APIResponse{data=model.Transaction}
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      422  {object}  common.AppError "Transaction is not pending"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/transactions/{id}/reject [patch]
func (h *TransactionHandler) RejectTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	transaction, err := h.service.RejectTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrTransactionNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrOnlyPendingCanBeRejected:
			return common.NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not reject transaction", err)
		}
	}

	respond(w, http.StatusOK, transaction, "Transaction rejected successfully")
	return nil
}

// UpdateTransactionStatus godoc
// @Summary      Update a pending transaction's status
// @Description  Generic form of approve/reject. Target status must be confirmed or rejected.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Param        status body model.UpdateTransactionStatusRequest true "Target status"
// @Success      200  {object}  handler.APIResponse{data=model.Transaction}
// @Failure      400  {object}  common.AppError "Invalid target status"
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      422  {object}  common.AppError "Transaction is not pending"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/transactions/{id}/status [patch]
func (h *TransactionHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateTransactionStatusRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	transaction, err := h.service.UpdateTransactionStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		switch err {
		case service.ErrTransactionNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrInvalidStatus:
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		case service.ErrOnlyPendingCanBeUpdated:
			return common.NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not update transaction status", err)
		}
	}

	respond(w, http.StatusOK, transaction, "Transaction status updated successfully")
	return nil
}
