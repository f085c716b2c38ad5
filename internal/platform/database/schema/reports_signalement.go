// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SignalementTable represents the reports module's 'signalements' table. It is
// owned by that module; only the ownership and reporter columns are touched here.
type SignalementTable struct {
	Table        string
	UserID       string
	ReporterName string
	Phone        string
	Status       string

	// StatusDeleted marks a report withdrawn by the reports module.
	StatusDeleted string
	// AnonymousReporter replaces the reporter name of anonymized reports.
	AnonymousReporter string
}

// Signalement is the schema definition for signalements
var Signalement = SignalementTable{
	Table:        "signalements",
	UserID:       "user_id",
	ReporterName: "nom_citoyen",
	Phone:        "telephone",
	Status:       "statut",

	StatusDeleted:     "Supprimé",
	AnonymousReporter: "Utilisateur supprimé",
}
