package handler

import (
	"net/http"

	"github.com/kiranshivaraju/sharpjobs/internal/api/response"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
)

// NewListTasksHandler returns GET /api/v1/tasks.
func NewListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, tasks.Specs())
	}
}
