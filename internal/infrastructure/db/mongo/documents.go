package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/securedoc/account-service/internal/core/domain"
)

const (
	collectionUsers         = "users"
	collectionCredentials   = "credentials"
	collectionConfirmations = "confirmations"
	collectionRoles         = "roles"
)

type auditDoc struct {
	ReferenceID string    `bson:"reference_id"`
	CreatedBy   string    `bson:"created_by"`
	UpdatedBy   string    `bson:"updated_by"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toAuditDoc(a domain.Auditable) auditDoc {
	return auditDoc{
		ReferenceID: a.ReferenceID,
		CreatedBy:   string(a.CreatedBy),
		UpdatedBy:   string(a.UpdatedBy),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (d auditDoc) toDomain(id primitive.ObjectID) domain.Auditable {
	return domain.Auditable{
		ID:          id.Hex(),
		ReferenceID: d.ReferenceID,
		CreatedBy:   domain.ActorID(d.CreatedBy),
		UpdatedBy:   domain.ActorID(d.UpdatedBy),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type userDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Audit             auditDoc           `bson:",inline"`
	UserID            string             `bson:"user_id"`
	FirstName         string             `bson:"first_name"`
	LastName          string             `bson:"last_name"`
	Email             string             `bson:"email"`
	Phone             string             `bson:"phone"`
	Bio               string             `bson:"bio"`
	ProfileImageURL   string             `bson:"image_url"`
	LoginAttempts     int                `bson:"login_attempts"`
	LastLoginAt       *time.Time         `bson:"last_login,omitempty"`
	AccountNonExpired bool               `bson:"account_non_expired"`
	AccountNonLocked  bool               `bson:"account_non_locked"`
	Enabled           bool               `bson:"enabled"`
	MFAEnabled        bool               `bson:"mfa"`
	QRCodeSecret      string             `bson:"qr_code_secret"`
	QRCodeImageURI    string             `bson:"qr_code_image_uri"`
	RoleID            primitive.ObjectID `bson:"role_id,omitempty"`
}

func toUserDoc(u *domain.User) userDoc {
	roleID, _ := primitive.ObjectIDFromHex(u.RoleID)
	return userDoc{
		Audit:             toAuditDoc(u.Auditable),
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
		RoleID:            roleID,
	}
}

func (d userDoc) toDomain() *domain.User {
	u := &domain.User{
		Auditable:         d.Audit.toDomain(d.ID),
		UserID:            d.UserID,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Email:             d.Email,
		Phone:             d.Phone,
		Bio:               d.Bio,
		ProfileImageURL:   d.ProfileImageURL,
		LoginAttempts:     d.LoginAttempts,
		LastLoginAt:       d.LastLoginAt,
		AccountNonExpired: d.AccountNonExpired,
		AccountNonLocked:  d.AccountNonLocked,
		Enabled:           d.Enabled,
		MFAEnabled:        d.MFAEnabled,
		QRCodeSecret:      d.QRCodeSecret,
		QRCodeImageURI:    d.QRCodeImageURI,
	}
	if !d.RoleID.IsZero() {
		u.RoleID = d.RoleID.Hex()
	}
	return u
}

type credentialDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Audit        auditDoc           `bson:",inline"`
	UserID       primitive.ObjectID `bson:"user_id"`
	PasswordHash string             `bson:"password_hash"`
}

type confirmationDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Audit  auditDoc           `bson:",inline"`
	Key    string             `bson:"key"`
	UserID primitive.ObjectID `bson:"user_id"`
}

func (d confirmationDoc) toDomain() *domain.Confirmation {
	return &domain.Confirmation{
		Auditable: d.Audit.toDomain(d.ID),
		Key:       d.Key,
		UserID:    d.UserID.Hex(),
	}
}

type roleDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Audit     auditDoc           `bson:",inline"`
	Name      string             `bson:"name"`
	Authority string             `bson:"authority"`
}

func (d roleDoc) toDomain() *domain.Role {
	return &domain.Role{
		Auditable: d.Audit.toDomain(d.ID),
		Name:      d.Name,
		Authority: domain.Authority(d.Authority),
	}
}
