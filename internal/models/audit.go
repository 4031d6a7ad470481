package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditLogin              AuditAction = "user_login"
	AuditLoginFailed        AuditAction = "user_login_failed"
	AuditLogout             AuditAction = "user_logout"
	AuditRegister           AuditAction = "user_registered"
	AuditPasswordChanged    AuditAction = "password_changed"
	AuditPasswordReset      AuditAction = "password_reset"
	AuditUserCreated        AuditAction = "user_created"
	AuditUserUpdated        AuditAction = "user_updated"
	AuditUserDeleted        AuditAction = "user_deleted"
	AuditShadowCreated      AuditAction = "shadow_account_created"
	AuditImpersonationStart AuditAction = "impersonation_started"
	AuditImpersonationEnd   AuditAction = "impersonation_ended"
	AuditMasterDataChanged  AuditAction = "master_data_changed"
	AuditModuleCreated      AuditAction = "module_created"
	AuditModuleUpdated      AuditAction = "module_updated"
	AuditModuleDeleted      AuditAction = "module_deleted"
	AuditModuleExported     AuditAction = "module_exported"
	AuditModuleTranslated   AuditAction = "module_translated"
	AuditAudioGenerated     AuditAction = "audio_generated"
	AuditAssignmentCreated  AuditAction = "assignment_created"
	AuditAssignmentDeleted  AuditAction = "assignment_deleted"
	AuditTrainingCompleted  AuditAction = "training_completed"
	AuditTestSubmitted      AuditAction = "test_submitted"
	AuditReportExported     AuditAction = "report_exported"
)

// AuditLog is append-only and only ever read for display.
type AuditLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Action    AuditAction    `json:"action" gorm:"not null;size:60;index"`
	Actor     string         `json:"actor" gorm:"not null;size:50;index"`
	TargetID  *string        `json:"target_id,omitempty" gorm:"size:60"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	RequestID *string        `json:"request_id,omitempty" gorm:"size:36"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
