package authorization

import (
	"context"
	"errors"
)

const (
	RoleViewer = "viewer"
	RoleAgent  = "agent"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

const (
	ObjectClient      = "client"
	ObjectAgent       = "agent"
	ObjectAsset       = "asset"
	ObjectInsurer     = "insurer"
	ObjectQuotation   = "quotation"
	ObjectPolicy      = "policy"
	ObjectInstallment = "installment"
	ObjectReport      = "report"
	ObjectAuditLog    = "audit_log"
)

const (
	ActionClientView   = "client.view"
	ActionClientCreate = "client.create"

	ActionAgentView   = "agent.view"
	ActionAgentCreate = "agent.create"
	ActionAgentUpdate = "agent.update"
	ActionAgentDelete = "agent.delete"
	ActionAgentAssign = "agent.assign"

	ActionAssetView   = "asset.view"
	ActionAssetCreate = "asset.create"
	ActionAssetUpdate = "asset.update"
	ActionAssetDelete = "asset.delete"

	ActionInsurerView   = "insurer.view"
	ActionInsurerCreate = "insurer.create"
	ActionInsurerUpdate = "insurer.update"
	ActionInsurerDelete = "insurer.delete"

	ActionQuotationView     = "quotation.view"
	ActionQuotationCreate   = "quotation.create"
	ActionQuotationUpdate   = "quotation.update"
	ActionQuotationDelete   = "quotation.delete"
	ActionQuotationSimulate = "quotation.simulate"

	ActionPolicyView    = "policy.view"
	ActionPolicyCreate  = "policy.create"
	ActionPolicyPay     = "policy.pay"
	ActionPolicyCancel  = "policy.cancel"
	ActionPolicyCartera = "policy.cartera"
	ActionPolicyArchive = "policy.archive"

	ActionInstallmentView       = "installment.view"
	ActionInstallmentReclassify = "installment.reclassify"

	ActionReportView   = "report.view"
	ActionReportExport = "report.export"

	ActionAuditLogView = "audit_log.view"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service decides whether an authenticated actor holding role may perform
// action on object.
type Service interface {
	Authorize(ctx context.Context, actor string, role string, object string, action string) error
}
