package domain

// Tables lists every model migrated at startup, parents first.
var Tables = []interface{}{
	&Customer{},
	&Product{},
	&Order{},
	&OrderLine{},
}
