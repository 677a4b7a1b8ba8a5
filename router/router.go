package router

import (
	"go-ledger-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-ledger-api/docs"
)

func NewRouter(userHandler *handler.UserHandler, transactionHandler *handler.TransactionHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /api/v1/users", handler.ErrorHandlingMiddleware(userHandler.CreateUser))
	mux.Handle("GET /api/v1/users", handler.ErrorHandlingMiddleware(userHandler.ListUsers))
	mux.Handle("GET /api/v1/users/{id}", handler.ErrorHandlingMiddleware(userHandler.GetUser))
	mux.Handle("PUT /api/v1/users/{id}", handler.ErrorHandlingMiddleware(userHandler.UpdateUser))
	mux.Handle("DELETE /api/v1/users/{id}", handler.ErrorHandlingMiddleware(userHandler.DeleteUser))

	mux.Handle("POST /api/v1/transactions", handler.ErrorHandlingMiddleware(transactionHandler.CreateTransaction))
	mux.Handle("GET /api/v1/transactions", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactions))
	mux.Handle("GET /api/v1/transactions/{id}", handler.ErrorHandlingMiddleware(transactionHandler.GetTransaction))
	mux.Handle("PATCH /api/v1/transactions/{id}/approve", handler.ErrorHandlingMiddleware(transactionHandler.ApproveTransaction))
	mux.Handle("PATCH /api/v1/transactions/{id}/reject", handler.ErrorHandlingMiddleware(transactionHandler.RejectTransaction))
	mux.Handle("PATCH /api/v1/transactions/{id}/status", handler.ErrorHandlingMiddleware(transactionHandler.UpdateTransactionStatus))

	return mux
}
