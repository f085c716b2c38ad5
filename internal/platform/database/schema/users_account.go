// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        string
	Province     string
	Role         string
	Permissions  string
	IsActive     string
	CreatedBy    string
	CreatedAt    string
	UpdatedAt    string
	LastLogin    string
	LastActivity string
	DeletedAt    string

	// EmailKey is the unique index on Email.
	EmailKey string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	Email:        "email",
	Password:     "passwordhash",
	FirstName:    "firstname",
	LastName:     "lastname",
	Phone:        "phone",
	Province:     "province",
	Role:         "role",
	Permissions:  "permissions",
	IsActive:     "isactive",
	CreatedBy:    "createdby",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	LastLogin:    "lastlogin",
	LastActivity: "lastactivity",
	DeletedAt:    "deletedat",
	EmailKey:     "account_email_key",
}

// Columns returns the columns hydrated into a user entity, in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FirstName, t.LastName, t.Phone, t.Province,
		t.Role, t.Permissions, t.IsActive, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
		t.LastLogin, t.LastActivity, t.DeletedAt,
	}
}
