package store

import (
	"context"
	"fmt"
)

// demoSchema is a small broker CRM: master data, references and
// transactions with foreign keys between them. It is portable SQL.
var demoSchema = []string{
	`CREATE TABLE societes (
		id INTEGER PRIMARY KEY,
		raisonSociale VARCHAR(120) NOT NULL,
		siren VARCHAR(9)
	)`,
	`CREATE TABLE clients (
		id INTEGER PRIMARY KEY,
		prenom VARCHAR(60),
		nom VARCHAR(60) NOT NULL,
		email VARCHAR(120),
		dateNaissance DATE,
		optoutEmail BOOLEAN,
		societeMere INTEGER REFERENCES societes(id)
	)`,
	`CREATE TABLE ref_branches (
		id INTEGER PRIMARY KEY,
		code VARCHAR(10) NOT NULL,
		libelle VARCHAR(80) NOT NULL
	)`,
	`CREATE TABLE contrats (
		id INTEGER PRIMARY KEY,
		numero VARCHAR(20) NOT NULL,
		idClient INTEGER NOT NULL REFERENCES clients(id),
		idBranche INTEGER REFERENCES ref_branches(id),
		dateEffet DATE,
		primeAnnuelle DECIMAL(10,2),
		actif BOOLEAN DEFAULT TRUE
	)`,
	`CREATE TABLE sinistres_log (
		id INTEGER PRIMARY KEY,
		idContrat INTEGER REFERENCES contrats(id),
		survenuLe TIMESTAMP,
		montant DECIMAL(12,2)
	)`,
}

var demoData = []string{
	`INSERT INTO societes (id, raisonSociale, siren) VALUES (1, 'ACME Assurances', '552100554'), (2, 'Durand SARL', NULL)`,
	`INSERT INTO clients (id, prenom, nom, email, dateNaissance, optoutEmail, societeMere) VALUES
		(1, 'Jean', 'Dupont', 'jean.dupont@example.fr', '1980-04-12', FALSE, 1),
		(2, 'Marie', 'Martin', NULL, '1975-11-03', TRUE, NULL),
		(3, 'Paul', 'Durand', 'paul@durand.fr', NULL, NULL, 2)`,
	`INSERT INTO ref_branches (id, code, libelle) VALUES (1, 'AUTO', 'Automobile'), (2, 'MRH', 'Multirisque habitation'), (3, 'PREV', 'Prévoyance')`,
	`INSERT INTO contrats (id, numero, idClient, idBranche, dateEffet, primeAnnuelle, actif) VALUES
		(1, 'CT-2024-001', 1, 1, '2024-01-01', 640.50, TRUE),
		(2, 'CT-2024-002', 1, 2, '2024-03-15', 212.00, TRUE),
		(3, 'CT-2023-117', 2, 3, '2023-07-01', 980.00, FALSE)`,
	`INSERT INTO sinistres_log (id, idContrat, survenuLe, montant) VALUES (1, 1, '2024-06-02 14:30:00', 1250.00)`,
}

// SeedDemo creates and fills the demo tables.
func (s *Store) SeedDemo(ctx context.Context) error {
	for _, stmt := range append(append([]string{}, demoSchema...), demoData...) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
	}
	return nil
}
