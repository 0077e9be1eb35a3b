package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, role string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !knownRole(role) {
		s.auditDenied(ctx, actor, object, action)
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	if err := s.ensureGrouping(actor, roleSubject(role)); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("actor", actor),
			zap.String("role", role),
			zap.String("action", action),
		)
		s.auditDenied(ctx, actor, object, action)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role link per actor, so a key whose role
// changed in config loses the old grant on its next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(rule[0], rule[1]); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"subject": actor,
	})
}

func knownRole(role string) bool {
	switch role {
	case RoleViewer, RoleAgent, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	// agent inherits viewer, admin inherits agent; system only reads plus
	// the scheduled portfolio maintenance actions.
	groupings := [][]string{
		{roleSubject(RoleAgent), roleSubject(RoleViewer)},
		{roleSubject(RoleAdmin), roleSubject(RoleAgent)},
		{roleSubject(RoleSystem), roleSubject(RoleViewer)},
	}

	policies := [][]string{
		// Viewer permissions (read-only)
		{roleSubject(RoleViewer), ObjectClient, ActionClientView},
		{roleSubject(RoleViewer), ObjectAgent, ActionAgentView},
		{roleSubject(RoleViewer), ObjectAsset, ActionAssetView},
		{roleSubject(RoleViewer), ObjectInsurer, ActionInsurerView},
		{roleSubject(RoleViewer), ObjectQuotation, ActionQuotationView},
		{roleSubject(RoleViewer), ObjectQuotation, ActionQuotationSimulate},
		{roleSubject(RoleViewer), ObjectPolicy, ActionPolicyView},
		{roleSubject(RoleViewer), ObjectInstallment, ActionInstallmentView},
		{roleSubject(RoleViewer), ObjectReport, ActionReportView},

		// Agent permissions
		{roleSubject(RoleAgent), ObjectClient, ActionClientCreate},
		{roleSubject(RoleAgent), ObjectAsset, ActionAssetCreate},
		{roleSubject(RoleAgent), ObjectAsset, ActionAssetUpdate},
		{roleSubject(RoleAgent), ObjectQuotation, ActionQuotationCreate},
		{roleSubject(RoleAgent), ObjectQuotation, ActionQuotationUpdate},
		{roleSubject(RoleAgent), ObjectPolicy, ActionPolicyCreate},
		{roleSubject(RoleAgent), ObjectPolicy, ActionPolicyPay},
		{roleSubject(RoleAgent), ObjectPolicy, ActionPolicyArchive},
		{roleSubject(RoleAgent), ObjectReport, ActionReportExport},

		// Admin permissions
		{roleSubject(RoleAdmin), ObjectAgent, ActionAgentCreate},
		{roleSubject(RoleAdmin), ObjectAgent, ActionAgentUpdate},
		{roleSubject(RoleAdmin), ObjectAgent, ActionAgentDelete},
		{roleSubject(RoleAdmin), ObjectAgent, ActionAgentAssign},
		{roleSubject(RoleAdmin), ObjectAsset, ActionAssetDelete},
		{roleSubject(RoleAdmin), ObjectInsurer, ActionInsurerCreate},
		{roleSubject(RoleAdmin), ObjectInsurer, ActionInsurerUpdate},
		{roleSubject(RoleAdmin), ObjectInsurer, ActionInsurerDelete},
		{roleSubject(RoleAdmin), ObjectQuotation, ActionQuotationDelete},
		{roleSubject(RoleAdmin), ObjectPolicy, ActionPolicyCancel},
		{roleSubject(RoleAdmin), ObjectPolicy, ActionPolicyCartera},
		{roleSubject(RoleAdmin), ObjectInstallment, ActionInstallmentReclassify},
		{roleSubject(RoleAdmin), ObjectAuditLog, ActionAuditLogView},

		// System permissions (scheduler and integrations)
		{roleSubject(RoleSystem), ObjectPolicy, ActionPolicyCartera},
		{roleSubject(RoleSystem), ObjectPolicy, ActionPolicyArchive},
		{roleSubject(RoleSystem), ObjectInstallment, ActionInstallmentReclassify},
		{roleSubject(RoleSystem), ObjectReport, ActionReportExport},
	}

	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping[0], grouping[1]); err != nil {
			return err
		}
	}
	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}
	return nil
}
