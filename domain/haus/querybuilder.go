package haus

import (
	"github.com/uptrace/bun"
)

// QueryBuilder turns ids and search criteria into bun select queries.
// Every query loads the address and only returns houses that have one.
type QueryBuilder struct {
	db bun.IDB
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder(db bun.IDB) *QueryBuilder {
	return &QueryBuilder{db: db}
}

func (b *QueryBuilder) base(model any) *bun.SelectQuery {
	return b.db.NewSelect().
		Model(model).
		Relation("Adresse").
		Where("adresse.id IS NOT NULL")
}

// BuildID selects a single house by id
func (b *QueryBuilder) BuildID(model *Haus, id int64, withPersonen bool) *bun.SelectQuery {
	q := b.base(model).Where("haus.id = ?", id)
	if withPersonen {
		q = q.Relation("Personen")
	}
	return q
}

// Build selects the houses matching criteria. Keys must have been checked with IsValidKey.
func (b *QueryBuilder) Build(model *[]*Haus, criteria Suchkriterien) *bun.SelectQuery {
	q := b.base(model)

	if v, ok := criteria[KeyStrasse]; ok {
		q = q.Where("adresse.strasse ILIKE ?", "%"+v+"%")
	}

	for _, key := range []string{KeyWaermepumpe, KeyPool} {
		if criteria[key] == "true" {
			q = q.Where("haus.features LIKE ?", "%"+featureKeys[key]+"%")
		}
	}

	for _, key := range criteria.sortedKeys() {
		if _, ok := columns[key]; !ok {
			continue
		}
		q = q.Where("haus.? = ?", bun.Ident(key), criteria[key])
	}

	return q.Order("haus.id")
}
