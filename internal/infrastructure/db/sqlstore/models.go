package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/securedoc/account-service/internal/core/domain"
)

// AuditColumns is embedded in every model.
type AuditColumns struct {
	ReferenceID string    `bun:"reference_id,notnull,unique"`
	CreatedBy   string    `bun:"created_by,notnull"`
	UpdatedBy   string    `bun:"updated_by,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func toAuditColumns(a domain.Auditable) AuditColumns {
	return AuditColumns{
		ReferenceID: a.ReferenceID,
		CreatedBy:   string(a.CreatedBy),
		UpdatedBy:   string(a.UpdatedBy),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (c AuditColumns) toDomain(id string) domain.Auditable {
	return domain.Auditable{
		ID:          id,
		ReferenceID: c.ReferenceID,
		CreatedBy:   domain.ActorID(c.CreatedBy),
		UpdatedBy:   domain.ActorID(c.UpdatedBy),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

type roleModel struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID string `bun:"id,pk"`
	AuditColumns
	Name      string `bun:"name,notnull,unique"`
	Authority string `bun:"authority,notnull"`
}

func (m *roleModel) toDomain() *domain.Role {
	return &domain.Role{
		Auditable: m.AuditColumns.toDomain(m.ID),
		Name:      m.Name,
		Authority: domain.Authority(m.Authority),
	}
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID string `bun:"id,pk"`
	AuditColumns
	UserID            string     `bun:"user_id,notnull,unique"`
	FirstName         string     `bun:"first_name,notnull"`
	LastName          string     `bun:"last_name,notnull"`
	Email             string     `bun:"email,notnull,unique"`
	Phone             string     `bun:"phone"`
	Bio               string     `bun:"bio"`
	ProfileImageURL   string     `bun:"image_url"`
	LoginAttempts     int        `bun:"login_attempts,notnull,default:0"`
	LastLoginAt       *time.Time `bun:"last_login"`
	AccountNonExpired bool       `bun:"account_non_expired,notnull"`
	AccountNonLocked  bool       `bun:"account_non_locked,notnull"`
	Enabled           bool       `bun:"enabled,notnull"`
	MFAEnabled        bool       `bun:"mfa,notnull"`
	QRCodeSecret      string     `bun:"qr_code_secret"`
	QRCodeImageURI    string     `bun:"qr_code_image_uri"`
	RoleID            string     `bun:"role_id,nullzero"`

	Role *roleModel `bun:"rel:belongs-to,join:role_id=id"`
}

func toUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:                u.ID,
		AuditColumns:      toAuditColumns(u.Auditable),
		UserID:            u.UserID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Phone:             u.Phone,
		Bio:               u.Bio,
		ProfileImageURL:   u.ProfileImageURL,
		LoginAttempts:     u.LoginAttempts,
		LastLoginAt:       u.LastLoginAt,
		AccountNonExpired: u.AccountNonExpired,
		AccountNonLocked:  u.AccountNonLocked,
		Enabled:           u.Enabled,
		MFAEnabled:        u.MFAEnabled,
		QRCodeSecret:      u.QRCodeSecret,
		QRCodeImageURI:    u.QRCodeImageURI,
		RoleID:            u.RoleID,
	}
}

func (m *userModel) toDomain() *domain.User {
	u := &domain.User{
		Auditable:         m.AuditColumns.toDomain(m.ID),
		UserID:            m.UserID,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		Phone:             m.Phone,
		Bio:               m.Bio,
		ProfileImageURL:   m.ProfileImageURL,
		LoginAttempts:     m.LoginAttempts,
		LastLoginAt:       m.LastLoginAt,
		AccountNonExpired: m.AccountNonExpired,
		AccountNonLocked:  m.AccountNonLocked,
		Enabled:           m.Enabled,
		MFAEnabled:        m.MFAEnabled,
		QRCodeSecret:      m.QRCodeSecret,
		QRCodeImageURI:    m.QRCodeImageURI,
		RoleID:            m.RoleID,
	}
	if m.Role != nil && m.Role.ID != "" {
		u.Role = m.Role.toDomain()
	}
	return u
}

type credentialModel struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID string `bun:"id,pk"`
	AuditColumns
	UserID       string `bun:"user_id,notnull,unique"`
	PasswordHash string `bun:"password_hash,notnull"`
}

type confirmationModel struct {
	bun.BaseModel `bun:"table:confirmations,alias:cf"`

	ID string `bun:"id,pk"`
	AuditColumns
	Key    string `bun:"key,notnull,unique"`
	UserID string `bun:"user_id,notnull,unique"`
}

func (m *confirmationModel) toDomain() *domain.Confirmation {
	return &domain.Confirmation{
		Auditable: m.AuditColumns.toDomain(m.ID),
		Key:       m.Key,
		UserID:    m.UserID,
	}
}
