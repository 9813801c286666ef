package order

// SupplierGroup is the bucket of line items belonging to one supplier.
type SupplierGroup struct {
	SupplierID string
	Items      []LineItem
}

// PartitionBySupplier groups line items by the owning supplier of each
// item's product. Grouping is stable: suppliers appear in order of first
// occurrence among the items, and items keep their original relative order
// within each group.
func PartitionBySupplier(items []LineItem) []SupplierGroup {
	index := make(map[string]int, len(items))
	groups := make([]SupplierGroup, 0, len(items))

	for _, item := range items {
		supplier := item.Product.OwnerID
		i, ok := index[supplier]
		if !ok {
			i = len(groups)
			index[supplier] = i
			groups = append(groups, SupplierGroup{SupplierID: supplier})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}
