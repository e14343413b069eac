package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MerchantHandler struct {
	merchantSvs MerchantServicer
}

func NewMerchantHandler(merchantSvs MerchantServicer) *MerchantHandler {
	return &MerchantHandler{
		merchantSvs: merchantSvs,
	}
}

type MerchantStatusResponse struct {
	Status         domain.MerchantStatus `json:"status"`
	Message        string                `json:"message"`
	ShopName       string                `json:"shop_name,omitempty"`
	RejectedReason string                `json:"rejected_reason,omitempty"`
	BankAccount    string                `json:"bank_account,omitempty"`
	ApprovedAt     *time.Time            `json:"approved_at,omitempty"`
	RejectedAt     *time.Time            `json:"rejected_at,omitempty"`
	CreatedAt      *time.Time            `json:"created_at,omitempty"`
}

type statusByRefParams struct {
	UserRef string `uri:"user_ref" binding:"required,uuid_ref"`
}

// Status GET RouteGroup + MerchantStatusRoute.
func (m *MerchantHandler) Status(c *gin.Context) {
	m.respondStatus(c, getUserRefFromContext(c), true)
}

// StatusByRef GET RouteGroup + MerchantStatusRoute + "/:user_ref". Маршрут публичный, банковский счет не отдается.
func (m *MerchantHandler) StatusByRef(c *gin.Context) {
	var params statusByRefParams
	if err := c.ShouldBindUri(&params); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid user reference")).
			SetType(gin.ErrorTypePublic)
		return
	}
	m.respondStatus(c, uuid.MustParse(params.UserRef), false)
}

func (m *MerchantHandler) respondStatus(c *gin.Context, userRef uuid.UUID, withBankAccount bool) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	view, err := m.merchantSvs.MerchantStatusByPublicID(reqCtx, userRef)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			_ = c.AbortWithError(http.StatusNotFound, errors.New("user not found")).SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	resp := newMerchantStatusResponse(view)
	if !withBankAccount {
		resp.BankAccount = ""
	}
	c.JSON(http.StatusOK, resp)
}

func newMerchantStatusResponse(view *service.MerchantStatusView) MerchantStatusResponse {
	return MerchantStatusResponse{
		Status:         view.Status,
		Message:        view.Message,
		ShopName:       view.ShopName,
		RejectedReason: view.RejectReason,
		BankAccount:    view.BankAccount,
		ApprovedAt:     view.ApprovedAt,
		RejectedAt:     view.RejectedAt,
		CreatedAt:      view.CreatedAt,
	}
}
