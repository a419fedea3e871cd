package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundsledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

func TestCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Created(c, "created", gin.H{"id": "uid-1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != CodeSuccess || resp.Message != "created" || resp.Data == nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestFail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"insufficient", apperror.New(apperror.InsufficientFunds, "Insufficient funds"), http.StatusBadRequest, CodeBalanceNotEnough, "Insufficient funds"},
		{"not found", apperror.New(apperror.NotFound, "User not found"), http.StatusNotFound, CodeAccountNotFound, "User not found"},
		{"conflict", apperror.New(apperror.Conflict, "busy"), http.StatusConflict, CodeConflict, "busy"},
		{"upstream", apperror.New(apperror.UpstreamUnavailable, "gateway down"), http.StatusBadGateway, CodeUpstreamError, "gateway down"},
		{"plain error hides text", errors.New("dial tcp: refused"), http.StatusInternalServerError, CodeServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Fail(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode || resp.Message != tt.wantMsg {
				t.Errorf("response = %+v", resp)
			}
			if !c.IsAborted() {
				t.Error("context not aborted")
			}
		})
	}
}
