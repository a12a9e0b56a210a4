package constants

import (
	"strings"
)

type ExpenseType string

const (
	Meals          ExpenseType = "餐飲"
	Transportation ExpenseType = "交通"
	Lodging        ExpenseType = "住宿"
	OfficeSupplies ExpenseType = "辦公用品"
	Other          ExpenseType = "其他"
)

var allExpenseTypes = []ExpenseType{
	Meals,
	Transportation,
	Lodging,
	OfficeSupplies,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allExpenseTypes))
	for i, t := range allExpenseTypes {
		result[i] = string(t)
	}
	return result
}

// IsKnown reports whether the input matches one of the fixed choice labels.
// The store accepts free-form strings; the choice list is a presentation
// concern, so unknown labels are not rejected.
func IsKnown(input string) bool {
	trimmed := strings.TrimSpace(input)
	for _, t := range allExpenseTypes {
		if trimmed == string(t) {
			return true
		}
	}
	return false
}
