// Package respond writes JSON responses.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/walletauth/internal/logger"
	"github.com/patric-chuzhbe/walletauth/internal/models"
)

// JSON writes body as JSON with the given status.
func JSON(response http.ResponseWriter, status int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugw("error writing response body", zap.Error(err))
	}
}

// Message writes {"message": message} with the given status.
func Message(response http.ResponseWriter, status int, message string) {
	JSON(response, status, models.MessageResponse{Message: message})
}
