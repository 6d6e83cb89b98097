package memory

import (
	"github.com/hashicorp/go-memdb"
)

const (
	tableAccounts = "accounts"
	tableSessions = "sessions"
	tableEntities = "entities"
	tableBuyers   = "buyers"
	tableInvoices = "invoices"

	indexID         = "id"
	indexEntityName = "entity_name"
)

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    indexID,
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "ID"},
	}
}

// Schema describes every table of the in-memory store.  memdb does not
// enforce Unique on secondary indexes, so the writers check those
// constraints themselves inside the write transaction.
func Schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableAccounts: {
				Name: tableAccounts,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: idIndex(),
					"username": {
						Name:    "username",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Username"},
					},
				},
			},
			tableSessions: {
				Name: tableSessions,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: idIndex(),
					"token": {
						Name:    "token",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "TokenHash"},
					},
					"account": {
						Name:    "account",
						Indexer: &memdb.StringFieldIndex{Field: "AccountID"},
					},
				},
			},
			tableEntities: {
				Name: tableEntities,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: idIndex(),
					"account": {
						Name:    "account",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "AccountID"},
					},
				},
			},
			tableBuyers: {
				Name: tableBuyers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: idIndex(),
					"entity": {
						Name:    "entity",
						Indexer: &memdb.StringFieldIndex{Field: "EntityID"},
					},
					indexEntityName: {
						Name:         indexEntityName,
						AllowMissing: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "EntityID"},
								&memdb.StringFieldIndex{Field: "BuyerName"},
							},
						},
					},
				},
			},
			tableInvoices: {
				Name: tableInvoices,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: idIndex(),
					"entity": {
						Name:    "entity",
						Indexer: &memdb.StringFieldIndex{Field: "EntityID"},
					},
				},
			},
		},
	}
}
