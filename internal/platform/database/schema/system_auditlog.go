// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table      string
	ID         string
	ActorID    string
	ActorRole  string
	Action     string
	EntityType string
	EntityID   string
	Before     string
	After      string
	IPAddress  string
	UserAgent  string
	CreatedAt  string
}

var SystemAuditLog = SystemAuditLogTable{
	Table:      "system.auditlog",
	ID:         "id",
	ActorID:    "actorid",
	ActorRole:  "actorrole",
	Action:     "action",
	EntityType: "entitytype",
	EntityID:   "entityid",
	Before:     "before",
	After:      "after",
	IPAddress:  "ipaddress",
	UserAgent:  "useragent",
	CreatedAt:  "createdat",
}

// Columns returns the insert column order.
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.ActorID, t.ActorRole, t.Action, t.EntityType, t.EntityID,
		t.Before, t.After, t.IPAddress, t.UserAgent, t.CreatedAt,
	}
}
