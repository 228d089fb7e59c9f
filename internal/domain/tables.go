package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Product{},
	&ProductVariant{},
	// Ledger
	&Customer{},
	&Transaction{},
	// Orders
	&Order{},
	&OrderItem{},
}
