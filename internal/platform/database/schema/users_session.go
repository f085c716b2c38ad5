// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table      string
	ID         string
	UserID     string
	TokenHash  string
	IPAddress  string
	UserAgent  string
	IsActive   string
	CreatedAt  string
	ExpiresAt  string
	LastSeenAt string
	RevokedAt  string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:      "users.session",
	ID:         "id",
	UserID:     "userid",
	TokenHash:  "tokenhash",
	IPAddress:  "ipaddress",
	UserAgent:  "useragent",
	IsActive:   "isactive",
	CreatedAt:  "createdat",
	ExpiresAt:  "expiresat",
	LastSeenAt: "lastseenat",
	RevokedAt:  "revokedat",
}

// Columns returns the columns hydrated into a session entity, in scan order.
func (t UserSessionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.IPAddress, t.UserAgent, t.IsActive,
		t.CreatedAt, t.ExpiresAt, t.LastSeenAt,
	}
}
